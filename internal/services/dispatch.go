package services

import (
	"context"
	"fmt"
	"log/slog"

	"gatherly/internal/domain"
)

type channelDispatcher struct {
	mailer domain.Mailer
	texter domain.Texter
	logger *slog.Logger
}

// NewChannelDispatcher returns a dispatcher that routes a message to a
// guest's preferred channel. A guest whose contact info does not match the
// declared channel is skipped with a log line instead of failing the send,
// so one malformed guest never poisons a broadcast.
func NewChannelDispatcher(mailer domain.Mailer, texter domain.Texter, logger *slog.Logger) domain.ChannelDispatcher {
	return &channelDispatcher{
		mailer: mailer,
		texter: texter,
		logger: logger,
	}
}

func (d *channelDispatcher) Send(ctx context.Context, guest domain.GuestRecord, msg domain.Message) error {
	switch guest.Notify {
	case domain.NotifySMS:
		if !domain.IsPhone(guest.Phone) {
			d.logger.Warn("skipping sms dispatch, guest has no valid phone", "guest", guest.ID)
			return nil
		}
		if err := d.texter.Send(ctx, guest.Phone, msg.Body); err != nil {
			return fmt.Errorf("%w: sms to %s: %v", domain.ErrDelivery, guest.ID, err)
		}
		return nil
	case domain.NotifyEmail:
		if !domain.IsEmail(guest.Email) {
			d.logger.Warn("skipping email dispatch, guest has no valid email", "guest", guest.ID)
			return nil
		}
		if err := d.mailer.Send(guest.Email, msg.Subject, msg.HTML, msg.Body); err != nil {
			return fmt.Errorf("%w: email to %s: %v", domain.ErrDelivery, guest.ID, err)
		}
		return nil
	default:
		d.logger.Warn("skipping dispatch, unknown channel", "guest", guest.ID, "notify", guest.Notify)
		return nil
	}
}
