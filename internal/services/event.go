package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	notifRepo      domain.NotificationRepository
	resolver       domain.GuestResolver
	dispatcher     domain.ChannelDispatcher
	renderer       domain.MessageTemplateRenderer
	blobStore      domain.BlobStore
	bus            domain.RealtimeBus
	logger         *slog.Logger
	rsvpLink       string
	contextTimeout time.Duration
}

func NewEventService(
	eventRepo domain.EventRepository,
	notifRepo domain.NotificationRepository,
	resolver domain.GuestResolver,
	dispatcher domain.ChannelDispatcher,
	renderer domain.MessageTemplateRenderer,
	blobStore domain.BlobStore,
	bus domain.RealtimeBus,
	logger *slog.Logger,
	rsvpLink string,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		notifRepo:      notifRepo,
		resolver:       resolver,
		dispatcher:     dispatcher,
		renderer:       renderer,
		blobStore:      blobStore,
		bus:            bus,
		logger:         logger,
		rsvpLink:       rsvpLink,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, creator *domain.User, e *domain.Event, invited []string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e.ID = uuid.NewString()
	e.CreatedBy = creator.ID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	e.RSVPOpen = true

	seen := make(map[string]struct{})
	guests := make([]domain.GuestRecord, 0, len(invited))
	for _, identifier := range invited {
		guest, err := s.resolver.Resolve(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[guest.ID]; ok {
			continue
		}
		seen[guest.ID] = struct{}{}
		guests = append(guests, guest)
	}
	e.InvitedGuests = guests
	e.Attendees = []domain.AttendeeRecord{}
	e.Memories = []domain.Memory{}

	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	for _, guest := range guests {
		go s.notifyInvited(*e, *creator, guest)
	}

	return e, nil
}

// GetByID also repairs stale placeholder guests: any guest whose id is still
// a raw contact string is re-resolved, and if that contact has since
// registered the stored row is rewritten with the real identity.
func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	for i, guest := range event.InvitedGuests {
		if guest.Registered() {
			continue
		}
		resolved, err := s.resolver.Resolve(ctx, guest.ID)
		if err != nil || !resolved.Registered() {
			continue
		}
		if err := s.eventRepo.UpgradeGuestIdentity(ctx, event.ID, guest.ID, resolved); err != nil {
			s.logger.Warn("upgrade guest identity", "event", event.ID, "guest", guest.ID, "error", err)
			continue
		}
		event.InvitedGuests[i] = resolved
	}

	return event, nil
}

func (s *eventService) ListAll(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListVisible(ctx context.Context, viewer *domain.User) ([]*domain.Event, error) {
	events, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.IsPublic || e.CreatedBy == viewer.ID {
			visible = append(visible, e)
			continue
		}
		if _, ok := e.GuestByIdentifier(viewer.ID); ok {
			visible = append(visible, e)
			continue
		}
		if viewer.Email != "" {
			if _, ok := e.GuestByIdentifier(viewer.Email); ok {
				visible = append(visible, e)
				continue
			}
		}
		if viewer.Phone != "" {
			if _, ok := e.GuestByIdentifier(viewer.Phone); ok {
				visible = append(visible, e)
			}
		}
	}
	return visible, nil
}

func (s *eventService) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	updated, err := s.eventRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// InviteByIdentifier toggles guest-list membership. A fresh invite sends the
// invite message and, for registered guests, records a notification;
// uninviting is silent.
func (s *eventService) InviteByIdentifier(ctx context.Context, eventID string, actor *domain.User, identifier string) (*domain.Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get event: %w", err)
	}

	guest, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, false, err
	}

	if existing, ok := event.GuestByIdentifier(guest.ID); ok {
		if _, err := s.eventRepo.RemoveGuest(ctx, eventID, existing.ID); err != nil {
			return nil, false, fmt.Errorf("remove guest: %w", err)
		}
		updated, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, false, fmt.Errorf("get event: %w", err)
		}
		return updated, false, nil
	}

	added, err := s.eventRepo.AddGuest(ctx, eventID, guest)
	if err != nil {
		return nil, false, fmt.Errorf("add guest: %w", err)
	}
	if added {
		go s.notifyInvited(*event, *actor, guest)
	}

	updated, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, fmt.Errorf("get event: %w", err)
	}
	return updated, true, nil
}

func (s *eventService) ToggleGuest(ctx context.Context, eventID string, g domain.GuestRecord) (*domain.Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get event: %w", err)
	}

	invited := true
	if _, ok := event.GuestByIdentifier(g.ID); ok {
		if _, err := s.eventRepo.RemoveGuest(ctx, eventID, g.ID); err != nil {
			return nil, false, fmt.Errorf("remove guest: %w", err)
		}
		invited = false
	} else {
		if _, err := s.eventRepo.AddGuest(ctx, eventID, g); err != nil {
			return nil, false, fmt.Errorf("add guest: %w", err)
		}
	}

	updated, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, false, fmt.Errorf("get event: %w", err)
	}
	return updated, invited, nil
}

func (s *eventService) ToggleRSVP(ctx context.Context, eventID string, user *domain.User, headcount int) (*domain.RSVPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.RSVPOpen {
		return nil, domain.NewValidationError("event", "RSVP is closed for this event!")
	}

	attendee := domain.AttendeeRecord{
		ID:        user.ID,
		Name:      user.FullName(),
		Notify:    user.Notify,
		Email:     user.Email,
		Phone:     user.Phone,
		Headcount: headcount,
	}
	attending, err := s.eventRepo.ToggleRSVP(ctx, eventID, attendee)
	if err != nil {
		return nil, fmt.Errorf("toggle rsvp: %w", err)
	}

	go s.afterRSVP(*event, *user, attending, headcount)

	updated, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &domain.RSVPResult{Event: updated, Attending: attending}, nil
}

// Delete removes the event; the repository hands back a snapshot so the
// cancellation broadcast still knows who was invited. Past events are
// removed silently.
func (s *eventService) Delete(ctx context.Context, eventID string, actor *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.CreatedBy != actor.ID {
		return domain.ErrForbidden
	}

	snapshot, err := s.eventRepo.Delete(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	if snapshot.HasFutureDate(time.Now()) {
		go s.broadcastCancellation(*snapshot)
	}
	return nil
}

func (s *eventService) AddMemory(ctx context.Context, eventID string, user *domain.User, m domain.Memory, pic []byte, contentType string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	m.ID = uuid.NewString()
	m.UserName = user.FullName()
	m.AddedAt = time.Now()
	if m.Location == "" {
		m.Location = event.Location
	}

	if len(pic) > 0 {
		if !strings.HasPrefix(contentType, "image/") {
			return nil, domain.NewValidationError("pic", "Images only!")
		}
		key := fmt.Sprintf("pics/%s/%s", eventID, m.ID)
		url, err := s.blobStore.Upload(ctx, key, contentType, pic)
		if err != nil {
			return nil, fmt.Errorf("upload pic: %w", err)
		}
		m.PicURL = url
	}
	if m.PicURL == "" {
		return nil, domain.NewValidationError("pic", "A photo is required!")
	}

	if err := s.eventRepo.AddMemory(ctx, eventID, m); err != nil {
		return nil, fmt.Errorf("add memory: %w", err)
	}

	updated, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return updated, nil
}

// SendReminders messages every invited guest who has not yet RSVPed.
func (s *eventService) SendReminders(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	pending := make([]domain.GuestRecord, 0, len(event.InvitedGuests))
	for _, guest := range event.InvitedGuests {
		if !event.IsAttending(guest.ID) {
			pending = append(pending, guest)
		}
	}
	go s.fanOut(*event, pending, "reminder")
	return nil
}

func (s *eventService) notifyInvited(event domain.Event, actor domain.User, guest domain.GuestRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
	defer cancel()

	msg, err := s.renderMessage("invite", event, actor.FullName(), 0)
	if err != nil {
		s.logger.Error("render invite message", "event", event.ID, "error", err)
		return
	}
	if err := s.dispatcher.Send(ctx, guest, msg); err != nil {
		s.logger.Error("send invite", "event", event.ID, "guest", guest.ID, "error", err)
	}
	if guest.Registered() {
		if _, err := s.notifRepo.Upsert(ctx, guest.ID, actor.ID, event.Type, event.Label, domain.NotifKindInvite); err != nil {
			s.logger.Error("record invite notification", "event", event.ID, "guest", guest.ID, "error", err)
		}
		s.bus.Emit(guest.ID, "notification", map[string]string{
			"event": event.Label,
			"kind":  domain.NotifKindInvite,
		})
	}
}

func (s *eventService) afterRSVP(event domain.Event, user domain.User, attending bool, headcount int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
	defer cancel()

	template := "rsvp_canceled"
	if attending {
		template = "rsvp_confirmed"
	}
	msg, err := s.renderMessage(template, event, user.FullName(), headcount)
	if err != nil {
		s.logger.Error("render rsvp message", "event", event.ID, "error", err)
	} else {
		guest := domain.GuestRecord{
			ID:     user.ID,
			Name:   user.FullName(),
			Notify: user.Notify,
			Email:  user.Email,
			Phone:  user.Phone,
		}
		if err := s.dispatcher.Send(ctx, guest, msg); err != nil {
			s.logger.Error("send rsvp confirmation", "event", event.ID, "user", user.ID, "error", err)
		}
	}

	if event.CreatedBy != user.ID {
		if _, err := s.notifRepo.Upsert(ctx, event.CreatedBy, user.ID, event.Type, event.Label, domain.NotifKindRSVP); err != nil {
			s.logger.Error("record rsvp notification", "event", event.ID, "error", err)
		}
		s.bus.Emit(event.CreatedBy, "notification", map[string]string{
			"event": event.Label,
			"kind":  domain.NotifKindRSVP,
		})
	}
}

// broadcastCancellation fans out one send per invited guest. Each dispatch
// is independent; a failed send is logged and never blocks the others. The
// event row is already gone, so nothing is written to the notification log.
func (s *eventService) broadcastCancellation(event domain.Event) {
	s.fanOut(event, event.InvitedGuests, "cancellation")
}

func (s *eventService) fanOut(event domain.Event, guests []domain.GuestRecord, template string) {
	msg, err := s.renderMessage(template, event, "", 0)
	if err != nil {
		s.logger.Error("render broadcast message", "event", event.ID, "template", template, "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, guest := range guests {
		wg.Add(1)
		go func(g domain.GuestRecord) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
			defer cancel()
			if err := s.dispatcher.Send(ctx, g, msg); err != nil {
				s.logger.Error("broadcast send", "event", event.ID, "guest", g.ID, "template", template, "error", err)
			}
		}(guest)
	}
	wg.Wait()
}

func (s *eventService) renderMessage(template string, event domain.Event, hostName string, headcount int) (domain.Message, error) {
	data := map[string]any{
		"Label":     event.Label,
		"Type":      event.Type,
		"Date":      event.Date.Format("Monday, January 2, 2006"),
		"Time":      event.Time,
		"Location":  event.Location,
		"HostName":  hostName,
		"Headcount": headcount,
		"RSVPLink":  fmt.Sprintf("%s/events/%s", s.rsvpLink, event.ID),
	}
	subject, html, text, err := s.renderer.Render(template, data)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Subject: subject, HTML: html, Body: text}, nil
}
