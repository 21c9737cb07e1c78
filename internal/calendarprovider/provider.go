// Package calendarprovider implements the CalendarProvider abstraction
// from spec §6: the boundary the sync_calendar tool and C2 conflict
// detection read external events through, independent of the concrete
// calendar vendor.
package calendarprovider

import (
	"context"
	"time"

	"github.com/haasonsaas/brickwork/pkg/models"
)

// Calendar identifies one of a user's calendars at the external provider.
type Calendar struct {
	ID       string
	Name     string
	Primary  bool
	ReadOnly bool
}

// Provider is the abstract external-calendar boundary (§6). Implementations
// are expected to be safe for concurrent use by multiple goroutines acting
// on behalf of the same user.
type Provider interface {
	ListCalendars(ctx context.Context, userID string) ([]Calendar, error)
	ListEvents(ctx context.Context, userID, calendarID string, from, to time.Time) ([]models.Event, error)
	CreateEvent(ctx context.Context, userID, calendarID string, event models.Event) (models.Event, error)
	UpdateEvent(ctx context.Context, userID, calendarID string, event models.Event) (models.Event, error)
	DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error
	ValidateCredentials(ctx context.Context, userID string) error
}
