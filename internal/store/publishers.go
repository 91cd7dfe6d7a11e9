package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rewards/internal/model"
)

const publisherColumns = `id, name, url, provider, favicon_url, verified, excluded, percent, weight, duration, visits`

// SavePublisher inserts or replaces the attention record for info.ID.
func (s *Store) SavePublisher(ctx context.Context, info model.PublisherInfo) error {
	if info.ID == "" {
		return fmt.Errorf("save publisher: empty id")
	}
	excluded := info.Excluded
	if excluded == "" {
		excluded = model.ExcludeDefault
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publishers (`+publisherColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			provider = excluded.provider,
			favicon_url = excluded.favicon_url,
			verified = excluded.verified,
			excluded = excluded.excluded,
			percent = excluded.percent,
			weight = excluded.weight,
			duration = excluded.duration,
			visits = excluded.visits
	`,
		info.ID,
		info.Name,
		info.URL,
		info.Provider,
		info.FaviconURL,
		info.Verified,
		string(excluded),
		info.Percent,
		info.Weight,
		info.Duration,
		info.Visits,
	)
	if err != nil {
		return fmt.Errorf("save publisher %s: %w", info.ID, err)
	}
	return nil
}

// LoadPublisher returns the first record matching filter, or ErrNotFound.
func (s *Store) LoadPublisher(ctx context.Context, filter model.PublisherFilter) (model.PublisherInfo, error) {
	where, args := publisherWhere(filter)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+publisherColumns+` FROM publishers`+where+` ORDER BY id COLLATE BINARY ASC LIMIT 1`,
		args...)
	info, err := scanPublisher(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PublisherInfo{}, ErrNotFound
	}
	if err != nil {
		return model.PublisherInfo{}, fmt.Errorf("load publisher: %w", err)
	}
	return info, nil
}

// ListPublishers returns up to limit records matching filter, starting at
// offset start, ordered by id. next is the offset of the following page,
// or 0 when this page is the last. A zero limit returns every remaining
// record.
func (s *Store) ListPublishers(ctx context.Context, start, limit uint32, filter model.PublisherFilter) (list []model.PublisherInfo, next uint32, err error) {
	where, args := publisherWhere(filter)

	// Fetch one extra row to learn whether another page exists.
	sqlLimit := int64(-1)
	if limit > 0 {
		sqlLimit = int64(limit) + 1
	}
	args = append(args, sqlLimit, start)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+publisherColumns+` FROM publishers`+where+
			` ORDER BY id COLLATE BINARY ASC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query publishers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		info, err := scanPublisher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan publisher: %w", err)
		}
		list = append(list, info)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate publishers: %w", err)
	}

	if limit > 0 && len(list) > int(limit) {
		list = list[:limit]
		next = start + limit
	}
	if list == nil {
		list = []model.PublisherInfo{}
	}
	return list, next, nil
}

// publisherWhere renders the id, exclusion, duration and verification
// parts of filter. Category and period do not apply to publisher rows.
func publisherWhere(filter model.PublisherFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	switch filter.Excluded {
	case model.FilterDefault:
		conds = append(conds, "excluded = ?")
		args = append(args, string(model.ExcludeDefault))
	case model.FilterExcluded:
		conds = append(conds, "excluded = ?")
		args = append(args, string(model.ExcludeExcluded))
	case model.FilterIncluded:
		conds = append(conds, "excluded = ?")
		args = append(args, string(model.ExcludeIncluded))
	case model.FilterAllExceptExcluded:
		conds = append(conds, "excluded != ?")
		args = append(args, string(model.ExcludeExcluded))
	}
	if filter.MinDuration > 0 {
		conds = append(conds, "duration >= ?")
		args = append(args, filter.MinDuration)
	}
	if filter.VerifiedOnly {
		conds = append(conds, "verified = 1")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublisher(row rowScanner) (model.PublisherInfo, error) {
	var info model.PublisherInfo
	var excluded string
	err := row.Scan(
		&info.ID,
		&info.Name,
		&info.URL,
		&info.Provider,
		&info.FaviconURL,
		&info.Verified,
		&excluded,
		&info.Percent,
		&info.Weight,
		&info.Duration,
		&info.Visits,
	)
	if err != nil {
		return model.PublisherInfo{}, err
	}
	info.Excluded = model.ExcludeState(excluded)
	return info, nil
}
