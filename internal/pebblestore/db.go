package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned when no blob is stored under a name.
var ErrNotFound = errors.New("pebblestore: not found")

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each write.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs for writes within
	// FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever leaves syncing to Pebble's own policies.
	FsyncModeNever
)

// Options configures the blob store.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

// DB stores named blobs in Pebble.
type DB struct {
	inner     *pebble.DB
	writeSync bool
}

const blobPrefix = "blob/"

func blobKey(name string) []byte {
	return []byte(blobPrefix + name)
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebblestore: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		interval := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return interval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", opts.DataDir, err)
	}
	return &DB{inner: inner, writeSync: opts.Fsync == FsyncModeAlways}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// LoadBlob returns the blob stored under name, or ErrNotFound.
func (db *DB) LoadBlob(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	val, closer, err := db.inner.Get(blobKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load blob %s: %w", name, err)
	}
	defer closer.Close()
	return string(val), nil
}

// SaveBlob replaces the blob stored under name.
func (db *DB) SaveBlob(ctx context.Context, name, data string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Set(blobKey(name), []byte(data), nil); err != nil {
		return fmt.Errorf("save blob %s: %w", name, err)
	}
	syncMode := pebble.NoSync
	if db.writeSync {
		syncMode = pebble.Sync
	}
	if err := b.Commit(syncMode); err != nil {
		return fmt.Errorf("save blob %s: %w", name, err)
	}
	return nil
}

// DeleteBlob removes the blob stored under name. Deleting a missing blob
// is not an error.
func (db *DB) DeleteBlob(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.inner.Delete(blobKey(name), pebble.Sync); err != nil {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}

// Names lists the stored blob names in key order.
func (db *DB) Names(ctx context.Context) ([]string, error) {
	iter, err := db.inner.NewIter(&pebble.IterOptions{
		LowerBound: []byte(blobPrefix),
		UpperBound: []byte("blob0"), // '0' follows '/'
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names = append(names, string(iter.Key()[len(blobPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	return names, nil
}
