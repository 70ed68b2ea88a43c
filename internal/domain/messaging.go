package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// Texter defines the contract for sending SMS messages.
type Texter interface {
	Send(ctx context.Context, phone, body string) error
}

// MessageTemplateRenderer renders message content from a named template.
// Subject and HTML apply to the email channel; text serves both channels.
type MessageTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// Message is a rendered outbound message. SMS delivery uses Body; email
// delivery uses Subject + HTML with Body as the plain-text alternative.
type Message struct {
	Subject string
	Body    string
	HTML    string
}

// ChannelDispatcher routes a message to a guest's preferred channel.
// A guest whose contact info does not match the declared channel is skipped
// (logged, nil error); transport failures wrap ErrDelivery. At most one
// delivery attempt per call.
type ChannelDispatcher interface {
	Send(ctx context.Context, guest GuestRecord, msg Message) error
}

// BlobStore stores bytes and returns a retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error)
}

// RealtimeBus publishes fire-and-forget events to a named room. No delivery
// acknowledgement.
type RealtimeBus interface {
	Emit(room, event string, payload any)
}
