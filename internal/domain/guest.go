package domain

import (
	"context"
	"regexp"
)

// Contact channel preferences. The preference decides which contact field is
// used for delivery.
const (
	NotifySMS   = "sms"
	NotifyEmail = "email"
)

// GuestRecord describes one invitee embedded in an event's guest list.
// For a registered guest, ID is the platform user id. For a placeholder
// guest, ID is the raw email or phone the host typed, pending upgrade once
// that contact registers.
// swagger:model GuestRecord
type GuestRecord struct {
	ID         string `json:"_id"`
	Name       string `json:"name,omitempty"`
	Notify     string `json:"notify"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Registered reports whether the guest resolved to a platform user.
// A placeholder guest's ID is its own raw contact info.
func (g GuestRecord) Registered() bool {
	return g.ID != g.Email && g.ID != g.Phone
}

// AttendeeRecord is a guest who confirmed attendance, with party size.
// Contact fields are a snapshot of the user's profile at RSVP time.
// swagger:model AttendeeRecord
type AttendeeRecord struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Notify    string `json:"notify"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Headcount int    `json:"headcount"`
}

// Guest returns the attendee's contact info as a guest record, for reuse by
// the dispatch path.
func (a AttendeeRecord) Guest() GuestRecord {
	return GuestRecord{
		ID:     a.ID,
		Name:   a.Name,
		Notify: a.Notify,
		Email:  a.Email,
		Phone:  a.Phone,
	}
}

// IdentifierKind classifies a raw guest identifier by shape.
type IdentifierKind int

const (
	IdentifierUnknown IdentifierKind = iota
	IdentifierUserID
	IdentifierEmail
	IdentifierPhone
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// phoneCharsRegex admits digits plus common phone punctuation; the
	// digit count decides whether it is actually a phone.
	phoneCharsRegex = regexp.MustCompile(`^\+?[0-9()\s.-]+$`)
	phoneDigitRegex = regexp.MustCompile(`[0-9]`)
	uuidRegex       = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// ClassifyIdentifier reports how a raw identifier should be resolved:
// an email address, a phone number, a platform user id, or unknown.
func ClassifyIdentifier(identifier string) IdentifierKind {
	switch {
	case emailRegex.MatchString(identifier):
		return IdentifierEmail
	case IsPhone(identifier):
		return IdentifierPhone
	case uuidRegex.MatchString(identifier):
		return IdentifierUserID
	default:
		return IdentifierUnknown
	}
}

// IsEmail reports whether s has an email shape.
func IsEmail(s string) bool { return emailRegex.MatchString(s) }

// IsPhone reports whether s has a phone shape: 10 to 15 digits with
// optional punctuation, e.g. "5551234567", "+1 (555) 123-4567",
// "8613912345678".
func IsPhone(s string) bool {
	if !phoneCharsRegex.MatchString(s) {
		return false
	}
	digits := len(phoneDigitRegex.FindAllString(s, -1))
	return digits >= 10 && digits <= 15
}

// GuestResolver resolves a raw identifier (user id, email, or phone) to a
// canonical guest record, producing a placeholder for contacts that have not
// registered. Read-only.
type GuestResolver interface {
	Resolve(ctx context.Context, identifier string) (GuestRecord, error)
}
