package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedVersion is returned when a blob was written by a newer
// schema than this binary understands.
var ErrUnsupportedVersion = errors.New("codec: unsupported schema version")

// ErrEmptyBlob is returned when decoding an empty blob.
var ErrEmptyBlob = errors.New("codec: empty blob")

// Envelope is the versioned wrapper every persisted blob is stored in.
//
// Version 0 means the payload predates the envelope: the whole document is
// the payload. Decoders accept versions in [0, max].
type Envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Seal encodes payload canonically inside an envelope at version.
func Seal(version int, payload any) (string, error) {
	body, err := Marshal(payload)
	if err != nil {
		return "", err
	}
	out, err := Marshal(Envelope{Version: version, Payload: body})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Open decodes a sealed blob into payload and returns its version.
// Blobs without a version field are treated as version 0 and decoded whole.
func Open(data string, maxVersion int, payload any) (int, error) {
	if data == "" {
		return 0, ErrEmptyBlob
	}

	var probe struct {
		Version *int            `json:"version"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := Unmarshal([]byte(data), &probe); err != nil {
		return 0, err
	}

	if probe.Version == nil {
		if err := Unmarshal([]byte(data), payload); err != nil {
			return 0, err
		}
		return 0, nil
	}

	version := *probe.Version
	if version < 0 || version > maxVersion {
		return version, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, maxVersion)
	}
	if len(probe.Payload) == 0 {
		return version, fmt.Errorf("codec: version %d blob has no payload", version)
	}
	if err := Unmarshal(probe.Payload, payload); err != nil {
		return version, err
	}
	return version, nil
}
