package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

const tokenExpiry = 7 * 24 * time.Hour

type userService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	dispatcher     domain.ChannelDispatcher
	renderer       domain.MessageTemplateRenderer
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewUserService(
	userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	dispatcher domain.ChannelDispatcher,
	renderer domain.MessageTemplateRenderer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		hasher:         hasher,
		issuer:         issuer,
		dispatcher:     dispatcher,
		renderer:       renderer,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *userService) Register(ctx context.Context, user *domain.User, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Notify == "" {
		user.Notify = domain.NotifyEmail
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	user.Salt = salt
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicatePhone) {
			return "", err
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Email, tokenExpiry)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	go s.sendWelcome(*user)

	return token, nil
}

func (s *userService) sendWelcome(user domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
	defer cancel()

	subject, html, text, err := s.renderer.Render("welcome", map[string]string{"FirstName": user.FirstName})
	if err != nil {
		s.logger.Error("render welcome message", "error", err)
		return
	}
	guest := domain.GuestRecord{
		ID:     user.ID,
		Name:   user.FullName(),
		Notify: user.Notify,
		Email:  user.Email,
		Phone:  user.Phone,
	}
	if err := s.dispatcher.Send(ctx, guest, domain.Message{Subject: subject, HTML: html, Body: text}); err != nil {
		s.logger.Error("send welcome message", "user", user.ID, "error", err)
	}
}

func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrForbidden
	}
	token, err := s.issuer.Issue(user.ID, user.Email, tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.userRepo.GetByID(ctx, user.ID)
}
