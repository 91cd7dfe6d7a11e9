package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/rewards/internal/model"
)

// SaveMediaPublisher maps a media key to the publisher that owns it.
func (s *Store) SaveMediaPublisher(ctx context.Context, mediaKey, publisherID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_publishers (media_key, publisher_id)
		VALUES (?, ?)
		ON CONFLICT(media_key) DO UPDATE SET publisher_id = excluded.publisher_id
	`, mediaKey, publisherID)
	if err != nil {
		return fmt.Errorf("save media publisher %s: %w", mediaKey, err)
	}
	return nil
}

// LoadMediaPublisher returns the publisher mapped to mediaKey. When the
// mapping exists but the publisher has no attention record yet, a record
// carrying only the id is returned.
func (s *Store) LoadMediaPublisher(ctx context.Context, mediaKey string) (model.PublisherInfo, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT publisher_id FROM media_publishers WHERE media_key = ?`, mediaKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PublisherInfo{}, ErrNotFound
	}
	if err != nil {
		return model.PublisherInfo{}, fmt.Errorf("load media publisher %s: %w", mediaKey, err)
	}

	info, err := s.LoadPublisher(ctx, model.PublisherFilter{ID: id})
	if errors.Is(err, ErrNotFound) {
		return model.PublisherInfo{ID: id}, nil
	}
	return info, err
}

// SaveContribution appends a settled contribution leg.
func (s *Store) SaveContribution(ctx context.Context, info model.ContributionInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contributions (publisher_id, category, probi, month, year, date)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		info.PublisherID,
		string(info.Category),
		info.Probi.String(),
		int(info.Month),
		info.Year,
		info.Date,
	)
	if err != nil {
		return fmt.Errorf("save contribution: %w", err)
	}
	return nil
}

// ListContributions returns the legs settled in month/year in insertion
// order. A zero month or year matches every period.
func (s *Store) ListContributions(ctx context.Context, month time.Month, year int) ([]model.ContributionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT publisher_id, category, probi, month, year, date
		FROM contributions
		WHERE (? = 0 OR month = ?) AND (? = 0 OR year = ?)
		ORDER BY id ASC
	`, int(month), int(month), year, year)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	list := []model.ContributionInfo{}
	for rows.Next() {
		var c model.ContributionInfo
		var category, probi string
		var m int
		if err := rows.Scan(&c.PublisherID, &category, &probi, &m, &c.Year, &c.Date); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.Probi, err = decimal.NewFromString(probi); err != nil {
			return nil, fmt.Errorf("contribution probi %q: %w", probi, err)
		}
		c.Category = model.Category(category)
		c.Month = time.Month(m)
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions: %w", err)
	}
	return list, nil
}

// SaveRecurringDonation inserts or replaces the pledge to d.PublisherID.
func (s *Store) SaveRecurringDonation(ctx context.Context, d model.RecurringDonation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_donations (publisher_id, amount, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(publisher_id) DO UPDATE SET amount = excluded.amount, added_at = excluded.added_at
	`, d.PublisherID, d.Amount.String(), d.AddedAt)
	if err != nil {
		return fmt.Errorf("save recurring donation %s: %w", d.PublisherID, err)
	}
	return nil
}

// RemoveRecurringDonation deletes the pledge to publisherID, or returns
// ErrNotFound when there is none.
func (s *Store) RemoveRecurringDonation(ctx context.Context, publisherID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_donations WHERE publisher_id = ?`, publisherID)
	if err != nil {
		return fmt.Errorf("remove recurring donation %s: %w", publisherID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove recurring donation %s: %w", publisherID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecurringDonations returns every pledge ordered by publisher id.
func (s *Store) ListRecurringDonations(ctx context.Context) ([]model.RecurringDonation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT publisher_id, amount, added_at
		FROM recurring_donations
		ORDER BY publisher_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query recurring donations: %w", err)
	}
	defer rows.Close()

	list := []model.RecurringDonation{}
	for rows.Next() {
		var d model.RecurringDonation
		var amount string
		if err := rows.Scan(&d.PublisherID, &amount, &d.AddedAt); err != nil {
			return nil, fmt.Errorf("scan recurring donation: %w", err)
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("recurring amount %q: %w", amount, err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring donations: %w", err)
	}
	return list, nil
}
