// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"kasetinfo/internal/models"
)

const itemColumns = `id, title, summary, content, image_url, source_url,
	display_category, tags, date, created_at, updated_at`

// ItemStore is the repository client for catalog items. It reads and
// writes the items table; it keeps no state of its own.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore creates a new ItemStore with the given database connection.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// scanItem reads one row of itemColumns. TEXT[] is decoded through a pgtype
// map since database/sql has no native array support.
func scanItem(row rowScanner) (*models.Item, error) {
	m := pgtype.NewMap()
	it := &models.Item{}
	err := row.Scan(
		&it.ID, &it.Title, &it.Summary, &it.Content, &it.ImageURL, &it.SourceURL,
		&it.DisplayCategory, m.SQLScanner(&it.Tags), &it.Date, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	return it, nil
}

// ListAll returns every item, newest first by creation time.
func (s *ItemStore) ListAll(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// FindByID retrieves an item by its UUID. Returns nil if not found.
func (s *ItemStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return it, nil
}

// Insert creates an item from the editable fields plus its display date and
// returns it with the database-assigned ID and timestamps.
func (s *ItemStore) Insert(ctx context.Context, n models.NewItem, date string) (*models.Item, error) {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	it, err := scanItem(s.db.QueryRowContext(ctx, `
		INSERT INTO items (title, summary, content, image_url, source_url, display_category, tags, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+itemColumns,
		n.Title, n.Summary, n.Content, n.ImageURL, n.SourceURL, n.DisplayCategory, tags, date,
	))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

// Update writes the editable fields of an item and returns the stored
// result. Returns nil if no item has the given ID.
func (s *ItemStore) Update(ctx context.Context, id uuid.UUID, p models.ItemPatch) (*models.Item, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	it, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items SET
			title = $1, summary = $2, content = $3, image_url = $4, tags = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING `+itemColumns,
		p.Title, p.Summary, p.Content, p.ImageURL, tags, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

// Count returns the number of items.
func (s *ItemStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
