package domain

import (
	"context"
	"time"
)

// Notification kinds. NotifKindNewMessage is surfaced over the realtime
// channel only and excluded from the feed.
const (
	NotifKindInvite     = "invite"
	NotifKindRSVP       = "rsvp"
	NotifKindNewMessage = "newMessage"
)

// Notification is a durable fact log entry: "actor did <kind> involving
// recipient about an event". Re-inserting an identical (to, from, event,
// label, kind) tuple replaces the prior entry and refreshes its timestamp.
// swagger:model Notification
type Notification struct {
	ID        string      `json:"id"`
	UserTo    string      `json:"userTo"`
	UserFrom  string      `json:"-"`
	From      *PublicUser `json:"userFrom,omitempty"`
	EventType string      `json:"event"`
	Label     string      `json:"label"`
	Kind      string      `json:"notificationType"`
	Opened    bool        `json:"opened"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NotificationRepository is the append-mostly notification log.
type NotificationRepository interface {
	// Upsert inserts the entry, replacing any prior entry with the same
	// (to, from, event, label, kind) composite key in a single statement.
	Upsert(ctx context.Context, to, from, eventType, label, kind string) (*Notification, error)
	// ListForUser returns the recipient's feed ordered by creation time
	// ascending, excluding the newMessage kind, with each actor projected
	// to its public subset.
	ListForUser(ctx context.Context, userID string, unopenedOnly bool) ([]*Notification, error)
	Latest(ctx context.Context, userID string) (*Notification, error)
	MarkOpened(ctx context.Context, id, userID string) error
}

// NotificationService exposes the notification feed.
type NotificationService interface {
	ListForUser(ctx context.Context, userID string, unopenedOnly bool) ([]*Notification, error)
	Latest(ctx context.Context, userID string) (*Notification, error)
	MarkOpened(ctx context.Context, id, userID string) error
}
