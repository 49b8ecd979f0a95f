// Package nats publishes catalog events to a NATS subject per event type.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const subjectPrefix = "marketplace.catalog"

type conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{conn: nc}
}

func (p *Publisher) Publish(ctx context.Context, e domain.CatalogEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	if err := p.conn.Publish(Subject(e.Type), data); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Subject returns the subject an event type is published on,
// e.g. "marketplace.catalog.listing.created".
func Subject(t domain.CatalogEventType) string {
	return subjectPrefix + "." + string(t)
}
