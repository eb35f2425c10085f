// Package audit publishes login events for downstream consumers.
package audit

import (
	"context"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
)

// Publisher ships a login event somewhere. Callers treat failures as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev domain.LoginEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.LoginEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
