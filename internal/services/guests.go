package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
)

type guestResolver struct {
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

// NewGuestResolver returns a resolver that turns a raw identifier (user id,
// email, or phone) into a canonical guest record. Contacts without an account
// resolve to a placeholder whose id is the raw contact string, so the record
// stays addressable until that contact registers.
func NewGuestResolver(userRepo domain.UserRepository, timeout time.Duration) domain.GuestResolver {
	return &guestResolver{
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (r *guestResolver) Resolve(ctx context.Context, identifier string) (domain.GuestRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	identifier = strings.TrimSpace(identifier)
	switch domain.ClassifyIdentifier(identifier) {
	case domain.IdentifierUserID:
		user, err := r.userRepo.GetByID(ctx, identifier)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.GuestRecord{}, domain.ErrUserNotFound
			}
			return domain.GuestRecord{}, fmt.Errorf("get user: %w", err)
		}
		return guestFromUser(user), nil
	case domain.IdentifierEmail:
		identifier = strings.ToLower(identifier)
		user, err := r.userRepo.GetByEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.GuestRecord{
					ID:     identifier,
					Notify: domain.NotifyEmail,
					Email:  identifier,
				}, nil
			}
			return domain.GuestRecord{}, fmt.Errorf("get user by email: %w", err)
		}
		return guestFromUser(user), nil
	case domain.IdentifierPhone:
		user, err := r.userRepo.GetByPhone(ctx, identifier)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.GuestRecord{
					ID:     identifier,
					Notify: domain.NotifySMS,
					Phone:  identifier,
				}, nil
			}
			return domain.GuestRecord{}, fmt.Errorf("get user by phone: %w", err)
		}
		return guestFromUser(user), nil
	default:
		return domain.GuestRecord{}, domain.NewValidationError("guest", "Must be a valid email, phone number, or user!")
	}
}

func guestFromUser(u *domain.User) domain.GuestRecord {
	return domain.GuestRecord{
		ID:         u.ID,
		Name:       u.FullName(),
		Notify:     u.Notify,
		Email:      u.Email,
		Phone:      u.Phone,
		ProfilePic: u.ProfilePic,
	}
}
