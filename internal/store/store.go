// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"bilateral-negotiator/internal/models"
)

// Journal defines the interface for session persistence. Sessions are saved
// once, at session end; reads drive the journal CLI and offline review.
type Journal interface {
	SaveSession(record *models.SessionRecord) error
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
	GetSessions(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error)
	GetStats(ctx context.Context, filter SessionFilter) (*models.SessionStats, error)
	Close() error
}

// SessionFilter narrows journal queries.
type SessionFilter struct {
	DomainName string
	Outcome    models.SessionOutcome
	Since      time.Time
	Until      time.Time
	Limit      int
}
