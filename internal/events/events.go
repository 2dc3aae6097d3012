// Package events publishes catalog changes to NATS so other services can
// react to new and edited items without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"kasetinfo/internal/models"
)

const (
	SubjectItemCreated = "kasetinfo.item.created"
	SubjectItemUpdated = "kasetinfo.item.updated"
)

// ItemEvent is the JSON payload of both subjects.
type ItemEvent struct {
	ID              uuid.UUID              `json:"id"`
	Title           string                 `json:"title"`
	DisplayCategory models.DisplayCategory `json:"display_category"`
	Tags            []string               `json:"tags"`
	Date            string                 `json:"date"`
	OccurredAt      time.Time              `json:"occurred_at"`
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

// Publisher sends item events. Publish failures are logged and never
// affect the catalog operation that triggered them.
type Publisher struct {
	nc  Conn
	now func() time.Time
}

// NewPublisher creates a publisher over an open connection.
func NewPublisher(nc Conn) *Publisher {
	return &Publisher{nc: nc, now: time.Now}
}

// Connect dials the NATS server at url with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("kasetinfo"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	slog.Info("nats connected", "url", nc.ConnectedUrl())
	return nc, nil
}

// ItemCreated publishes on SubjectItemCreated.
func (p *Publisher) ItemCreated(ctx context.Context, item models.Item) {
	p.publish(ctx, SubjectItemCreated, item)
}

// ItemUpdated publishes on SubjectItemUpdated.
func (p *Publisher) ItemUpdated(ctx context.Context, item models.Item) {
	p.publish(ctx, SubjectItemUpdated, item)
}

func (p *Publisher) publish(_ context.Context, subject string, item models.Item) {
	at := p.now().UTC()
	data, err := json.Marshal(ItemEvent{
		ID:              item.ID,
		Title:           item.Title,
		DisplayCategory: item.DisplayCategory,
		Tags:            item.Tags,
		Date:            item.Date,
		OccurredAt:      at,
	})
	if err != nil {
		slog.Warn("event marshal failed", "subject", subject, "error", err)
		return
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(nats.MsgIdHdr, fmt.Sprintf("%s-%d", item.ID, at.UnixNano()))

	if err := p.nc.PublishMsg(msg); err != nil {
		slog.Warn("event publish failed", "subject", subject, "item_id", item.ID, "error", err)
		return
	}
	slog.Debug("event published", "subject", subject, "item_id", item.ID)
}
