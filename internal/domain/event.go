package domain

import (
	"context"
	"time"
)

// Event represents a single planned gathering. Invited guests, attendees,
// and photo memories are sublists owned exclusively by the event aggregate.
// swagger:model Event
type Event struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Date          time.Time        `json:"date"`
	Time          string           `json:"time"`
	Location      string           `json:"location"`
	Label         string           `json:"label"`
	Description   string           `json:"description,omitempty"`
	IsPublic      bool             `json:"isPublic"`
	RSVPOpen      bool             `json:"rsvpOpen"`
	InvitedGuests []GuestRecord    `json:"invitedGuests"`
	Attendees     []AttendeeRecord `json:"attendees"`
	Memories      []Memory         `json:"pics"`
	CreatedBy     string           `json:"createdBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Memory is a photo attached to an event.
// swagger:model Memory
type Memory struct {
	ID       string    `json:"_id"`
	Date     string    `json:"date"`
	Location string    `json:"location"`
	PicURL   string    `json:"pic"`
	UserName string    `json:"user"`
	AddedAt  time.Time `json:"addedAt"`
}

// IsCurrent reports whether the event's date is today or later, independent
// of calendar year.
func (e *Event) IsCurrent(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !e.Date.Before(today)
}

// HasFutureDate reports whether the event date is strictly after today.
// Deleting a past event sends no cancellation messages.
func (e *Event) HasFutureDate(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return e.Date.After(today)
}

// GuestByIdentifier returns the invited guest matching the identifier
// against its id, email, or phone, mirroring how invitations address
// placeholder guests.
func (e *Event) GuestByIdentifier(identifier string) (GuestRecord, bool) {
	for _, g := range e.InvitedGuests {
		if g.ID == identifier || (g.Email != "" && g.Email == identifier) || (g.Phone != "" && g.Phone == identifier) {
			return g, true
		}
	}
	return GuestRecord{}, false
}

// IsAttending reports whether the user id is in the attendee list.
func (e *Event) IsAttending(userID string) bool {
	for _, a := range e.Attendees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// EventUpdate carries the full-field update payload. Nil pointers leave the
// stored value unchanged.
type EventUpdate struct {
	Type        *string
	Date        *time.Time
	Time        *string
	Location    *string
	Label       *string
	Description *string
	IsPublic    *bool
	RSVPOpen    *bool
}

// EventRepository defines storage for the event aggregate. Sublist mutators
// are conditional on current membership so concurrent identical calls cannot
// produce duplicate rows.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// Delete removes the event and returns the deleted snapshot, including
	// its invited-guest list, so the caller can still broadcast a
	// cancellation after the row is gone.
	Delete(ctx context.Context, id string) (*Event, error)

	// AddGuest inserts the guest unless one with the same id is already
	// invited; reports whether a row was added.
	AddGuest(ctx context.Context, eventID string, g GuestRecord) (added bool, err error)
	// RemoveGuest deletes the guest with the given id; reports whether a
	// row was removed.
	RemoveGuest(ctx context.Context, eventID, guestID string) (removed bool, err error)
	// ToggleRSVP removes the matching attendee if present, otherwise inserts
	// the given record. Returns true when the user is attending afterwards.
	ToggleRSVP(ctx context.Context, eventID string, a AttendeeRecord) (attending bool, err error)
	AddMemory(ctx context.Context, eventID string, m Memory) error
	// UpgradeGuestIdentity rewrites a placeholder guest row in place with a
	// resolved user identity (read-repair).
	UpgradeGuestIdentity(ctx context.Context, eventID, placeholderID string, g GuestRecord) error
}

// RSVPResult reports which branch of an RSVP toggle fired.
type RSVPResult struct {
	Event     *Event `json:"updated"`
	Attending bool   `json:"attending"`
}

// EventService is the RSVP/invite orchestrator: it resolves guests, mutates
// the aggregate, dispatches channel messages, and records notification log
// entries.
type EventService interface {
	Create(ctx context.Context, creator *User, e *Event, invited []string) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	ListAll(ctx context.Context) ([]*Event, error)
	// ListVisible returns events the viewer can see: public events plus
	// events whose guest list matches the viewer's id, email, or phone.
	ListVisible(ctx context.Context, viewer *User) ([]*Event, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// InviteByIdentifier resolves the identifier and toggles its guest-list
	// membership: inviting sends the invite message and logs a notification
	// for registered guests; uninviting is silent.
	InviteByIdentifier(ctx context.Context, eventID string, actor *User, identifier string) (event *Event, invited bool, err error)
	// ToggleGuest adds or removes an already-resolved guest without sending
	// anything.
	ToggleGuest(ctx context.Context, eventID string, g GuestRecord) (event *Event, invited bool, err error)
	ToggleRSVP(ctx context.Context, eventID string, user *User, headcount int) (*RSVPResult, error)
	// Delete removes the event; when the event date is in the future every
	// invited guest gets a cancellation message, each dispatch independent.
	Delete(ctx context.Context, eventID string, actor *User) error
	AddMemory(ctx context.Context, eventID string, user *User, m Memory, pic []byte, contentType string) (*Event, error)
	SendReminders(ctx context.Context, eventID string) error
}
