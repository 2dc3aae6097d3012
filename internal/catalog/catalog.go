// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the in-memory content catalog and the pure list
// pipeline built on top of it: filtering, tag facets, and pagination.
// The catalog is fetched once from the repository and then kept in sync
// by the catalog's own mutation methods; nothing outside this package can
// modify the underlying list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"kasetinfo/internal/models"
)

// FetchTimeout bounds a single catalog fetch.
const FetchTimeout = 30 * time.Second

// FetchFailedMessage is the error text recorded when a fetch fails with an
// error that carries no message of its own.
const FetchFailedMessage = "เกิดข้อผิดพลาดในการดึงข้อมูล"

// Repository is the subset of the item store the catalog depends on.
// Insert may return a nil item with a nil error when the backend accepted
// the write but did not echo the record back.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Item, error)
	Insert(ctx context.Context, item models.NewItem, date string) (*models.Item, error)
}

// Notifier is told about every item the catalog gains or changes. Calls
// happen after the catalog lock is released.
type Notifier interface {
	ItemCreated(ctx context.Context, item models.Item)
	ItemUpdated(ctx context.Context, item models.Item)
}

// ReloadNotifier is implemented by notifiers that also want to know when
// the whole list was replaced by a successful FetchAll.
type ReloadNotifier interface {
	CatalogReloaded(ctx context.Context, version uint64)
}

// State is a point-in-time snapshot of the catalog. Items is a copy.
type State struct {
	Items   []models.Item
	Loading bool
	Error   string
	Version uint64
}

// Catalog is the session-lifetime cache of all content items, newest first.
type Catalog struct {
	repo      Repository
	now       func() time.Time
	notifiers []Notifier

	mu       sync.RWMutex
	items    []models.Item
	inflight int
	errMsg   string
	version  uint64
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock overrides the clock used to stamp display dates on insert.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithNotifiers registers observers for created and updated items.
func WithNotifiers(n ...Notifier) Option {
	return func(c *Catalog) { c.notifiers = append(c.notifiers, n...) }
}

// New creates an empty catalog over repo. Call FetchAll to populate it.
func New(repo Repository, opts ...Option) *Catalog {
	c := &Catalog{
		repo:  repo,
		now:   time.Now,
		items: []models.Item{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll replaces the in-memory list with the repository's full listing.
// On failure the previous list is kept and the innermost error message is
// recorded in the catalog state; the full error is logged and returned.
// Concurrent calls are allowed and the last one to complete determines the
// final state.
//
// The catalog is shared by every client, so the fetch runs detached from
// ctx's cancellation and is bounded by FetchTimeout instead.
func (c *Catalog) FetchAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
	defer cancel()

	c.mu.Lock()
	c.inflight++
	c.errMsg = ""
	c.mu.Unlock()

	items, err := c.repo.ListAll(ctx)

	c.mu.Lock()
	c.inflight--

	if err != nil {
		c.errMsg = storeMessage(err)
		c.mu.Unlock()
		slog.Error("catalog fetch failed", "error", err)
		return fmt.Errorf("catalog fetch: %w", err)
	}

	fresh := make([]models.Item, len(items))
	for i := range items {
		fresh[i] = items[i].Clone()
	}
	c.items = fresh
	c.errMsg = ""
	c.version++
	version := c.version
	c.mu.Unlock()

	slog.Info("catalog loaded", "items", len(fresh), "version", version)
	for _, nt := range c.notifiers {
		if rn, ok := nt.(ReloadNotifier); ok {
			rn.CatalogReloaded(ctx, version)
		}
	}
	return nil
}

// storeMessage returns the message recorded for a failed fetch: the
// server's message for a PostgreSQL error, otherwise the message of the
// innermost wrapped error. Outer layers can carry connection details and
// stay in the logs only.
func storeMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FetchFailedMessage
}

// Insert stamps the item with today's display date, writes it through the
// repository, and prepends the stored record to the list. Repository errors
// are returned to the caller and leave the catalog untouched. When the
// repository stores the item without returning it, the catalog reloads in
// full and Insert returns a nil item.
func (c *Catalog) Insert(ctx context.Context, n models.NewItem) (*models.Item, error) {
	date := FormatThaiDate(c.now())

	created, err := c.repo.Insert(ctx, n, date)
	if err != nil {
		return nil, fmt.Errorf("catalog insert: %w", err)
	}

	if created == nil {
		slog.Warn("insert returned no record, reloading catalog")
		if err := c.FetchAll(ctx); err != nil {
			slog.Warn("catalog resync after insert failed", "error", err)
		}
		return nil, nil
	}

	item := created.Clone()

	c.mu.Lock()
	c.items = append([]models.Item{item}, c.items...)
	c.version++
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for _, nt := range c.notifiers {
		nt.ItemCreated(ctx, item)
	}
	return &item, nil
}

// UpdateInPlace replaces the cached item with the same ID. It is a local
// cache operation only; the repository write happens separately. Returns
// false when no cached item has that ID, in which case nothing changes.
func (c *Catalog) UpdateInPlace(ctx context.Context, updated models.Item) bool {
	item := updated.Clone()

	c.mu.Lock()
	idx := -1
	for i := range c.items {
		if c.items[i].ID == item.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return false
	}
	c.items[idx] = item
	c.version++
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for _, nt := range c.notifiers {
		nt.ItemUpdated(ctx, item)
	}
	return true
}

// State returns a snapshot of the catalog.
func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]models.Item, len(c.items))
	for i := range c.items {
		items[i] = c.items[i].Clone()
	}
	return State{
		Items:   items,
		Loading: c.inflight > 0,
		Error:   c.errMsg,
		Version: c.version,
	}
}

// Items returns a copy of the cached list.
func (c *Catalog) Items() []models.Item {
	return c.State().Items
}

// Err returns the recorded fetch error, or nil when the last fetch
// succeeded or none has run.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.errMsg == "" {
		return nil
	}
	return errors.New(c.errMsg)
}
