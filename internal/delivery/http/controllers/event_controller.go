package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gatherly/internal/adapters/storage"
	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

const maxPicSize = 10 << 20 // 10MB

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
	Users   domain.UserService
}

func NewEventController(logger *slog.Logger, svc domain.EventService, users domain.UserService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
		Users:   users,
	}
}

// currentUser loads the authenticated user's full profile; the service layer
// needs contact info and display name, not just the id.
func (c *EventController) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return nil, false
	}
	user, err := c.Users.GetByID(r.Context(), userID)
	if err != nil {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return nil, false
	}
	return user, true
}

// writeServiceError maps service errors to the API's field-error responses.
func (c *EventController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		helpers.WriteFieldErrors(w, http.StatusBadRequest, verr.Fields)
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteFieldError(w, http.StatusNotFound, "event", "Error, event not found!")
	case errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteFieldError(w, http.StatusNotFound, "guest", "Error, user not found!")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteFieldError(w, http.StatusForbidden, "auth", "Not allowed!")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Type          string   `json:"type"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Location      string   `json:"location"`
	Label         string   `json:"label"`
	Description   string   `json:"description"`
	IsPublic      bool     `json:"isPublic"`
	InvitedGuests []string `json:"invitedGuests"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() map[string]string {
	fields := map[string]string{}
	if c.Type == "" {
		fields["type"] = "Must not be empty!"
	}
	if c.Date == "" {
		fields["date"] = "Must not be empty!"
	} else if _, err := time.Parse("2006-01-02", c.Date); err != nil {
		fields["date"] = "Must be a valid date (YYYY-MM-DD)!"
	}
	if c.Time == "" {
		fields["time"] = "Must not be empty!"
	}
	if c.Location == "" {
		fields["location"] = "Must not be empty!"
	}
	if c.Label == "" {
		fields["label"] = "Must not be empty!"
	}
	return fields
}

// Create godoc
// @Summary Create a new event
// @Description Create an event with an optional initial guest list. Each entry in invitedGuests may be a user id, an email, or a phone number; invites go out on the guest's preferred channel.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} map[string]any "event and success message"
// @Failure 400 {object} map[string]string "field errors"
// @Failure 401 {object} map[string]string
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	event := &domain.Event{
		Type:        req.Type,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		Label:       req.Label,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	created, err := c.Service.Create(r.Context(), user, event, req.InvitedGuests)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, map[string]any{
		"event":   created,
		"success": "Event created successfully!",
	})
}

// List godoc
// @Summary List visible events or fetch one by id
// @Description Without an id query parameter, returns every event visible to the caller: public events plus any whose guest list matches the caller's id, email, or phone. The list is grouped three ways: events (all), current (date today or later), and memories (events with photos). With ?id=, returns that single event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id query string false "Event ID"
// @Success 200 {object} map[string]any "event or events"
// @Failure 404 {object} map[string]string
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	if id := r.URL.Query().Get("id"); id != "" {
		event, err := c.Service.GetByID(r.Context(), id)
		if err != nil {
			c.writeServiceError(w, r, err)
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]any{"event": event})
		return
	}
	events, err := c.Service.ListVisible(r.Context(), user)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	now := time.Now()
	current := make([]*domain.Event, 0)
	memories := make([]*domain.Event, 0)
	for _, e := range events {
		if e.IsCurrent(now) {
			current = append(current, e)
		}
		if len(e.Memories) > 0 {
			memories = append(memories, e)
		}
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"events":   events,
		"current":  current,
		"memories": memories,
	})
}

// UpdateEventRequest is the request body for PUT /events/update. All fields
// except event are optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Event       string  `json:"event"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Label       *string `json:"label"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
	RSVPOpen    *bool   `json:"rsvpOpen"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() map[string]string {
	fields := map[string]string{}
	if u.Event == "" {
		fields["event"] = "Must not be empty!"
	}
	if u.Date != nil {
		if _, err := time.Parse("2006-01-02", *u.Date); err != nil {
			fields["date"] = "Must be a valid date (YYYY-MM-DD)!"
		}
	}
	return fields
}

// Update godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} map[string]any "updated event"
// @Failure 404 {object} map[string]string
// @Router /events/update [put]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := c.currentUser(w, r); !ok {
		return
	}
	upd := domain.EventUpdate{
		Type:        req.Type,
		Time:        req.Time,
		Location:    req.Location,
		Label:       req.Label,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		RSVPOpen:    req.RSVPOpen,
	}
	if req.Date != nil {
		date, _ := time.Parse("2006-01-02", *req.Date)
		upd.Date = &date
	}
	updated, err := c.Service.Update(r.Context(), req.Event, upd)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"success": "Event updated successfully!",
	})
}

// RSVPRequest is the request body for PUT /events/rsvp. Headcount accepts a
// number or a numeric string.
type RSVPRequest struct {
	Event     string `json:"event"`
	Headcount any    `json:"headcount"`
}

// Validate implements Validator.
func (req RSVPRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.Event == "" {
		fields["event"] = "Must not be empty!"
	}
	if _, ok := req.headcount(); !ok {
		fields["headcount"] = "Numbers only!"
	}
	return fields
}

// headcount coerces the party size to a positive integer; zero and below
// are rejected along with anything non-numeric.
func (req RSVPRequest) headcount() (int, bool) {
	switch v := req.Headcount.(type) {
	case nil:
		return 1, true
	case float64:
		if v != float64(int(v)) || v < 1 {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// RSVP godoc
// @Summary Toggle the caller's RSVP on an event
// @Description First call confirms attendance with the given headcount; a second call cancels it. The response reports which way the toggle went.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rsvp body RSVPRequest true "Event id and party size"
// @Success 200 {object} map[string]any "updated event and attending flag"
// @Failure 400 {object} map[string]string "e.g. {\"headcount\": \"Numbers only!\"}"
// @Router /events/rsvp [put]
func (c *EventController) RSVP(w http.ResponseWriter, r *http.Request) {
	var req RSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	headcount, _ := req.headcount()
	result, err := c.Service.ToggleRSVP(r.Context(), req.Event, user, headcount)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	success := "RSVP canceled!"
	if result.Attending {
		success = "RSVP confirmed!"
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"updated":   result.Event,
		"attending": result.Attending,
		"success":   success,
	})
}

// ToggleGuestRequest is the request body for PUT /events/guests: an
// already-resolved guest record to add or remove, with no messages sent.
type ToggleGuestRequest struct {
	Event string             `json:"event"`
	Guest domain.GuestRecord `json:"guest"`
}

// Validate implements Validator.
func (req ToggleGuestRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.Event == "" {
		fields["event"] = "Must not be empty!"
	}
	if req.Guest.ID == "" {
		fields["guest"] = "Must not be empty!"
	}
	return fields
}

// ToggleGuest godoc
// @Summary Add or remove a guest without notifying them
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param guest body ToggleGuestRequest true "Event id and guest record"
// @Success 200 {object} map[string]any
// @Router /events/guests [put]
func (c *EventController) ToggleGuest(w http.ResponseWriter, r *http.Request) {
	var req ToggleGuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := c.currentUser(w, r); !ok {
		return
	}
	updated, invited, err := c.Service.ToggleGuest(r.Context(), req.Event, req.Guest)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	success := "Guest removed successfully!"
	if invited {
		success = "Guest added successfully!"
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"success": success,
	})
}

// InviteRequest is the request body for POST /events/invite and
// POST /events/find-and-invite. Guest may be a user id, email, or phone.
type InviteRequest struct {
	Event string `json:"event"`
	Guest string `json:"guest"`
}

// Validate implements Validator.
func (req InviteRequest) Validate() map[string]string {
	fields := map[string]string{}
	if req.Event == "" {
		fields["event"] = "Must not be empty!"
	}
	if req.Guest == "" {
		fields["guest"] = "Must not be empty!"
	}
	return fields
}

// Invite godoc
// @Summary Invite or uninvite a guest by identifier
// @Description Resolves the identifier to a registered user or a placeholder contact and toggles guest-list membership. A fresh invite messages the guest on their preferred channel; uninviting is silent.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invite body InviteRequest true "Event id and guest identifier"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string "e.g. {\"guest\": \"Error, user not found!\"}"
// @Router /events/invite [post]
func (c *EventController) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	updated, invited, err := c.Service.InviteByIdentifier(r.Context(), req.Event, user, req.Guest)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	success := "Guest removed successfully!"
	if invited {
		success = "Guest invited successfully!"
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"invited": invited,
		"success": success,
	})
}

// FindAndInvite godoc
// @Summary Resolve a contact and invite them in one call
// @Description Same toggle as /events/invite but also returns the resolved guest record, so the caller can show who was matched.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invite body InviteRequest true "Event id and guest identifier"
// @Success 200 {object} map[string]any
// @Router /events/find-and-invite [post]
func (c *EventController) FindAndInvite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	updated, invited, err := c.Service.InviteByIdentifier(r.Context(), req.Event, user, req.Guest)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	var guest any
	if g, found := updated.GuestByIdentifier(req.Guest); found {
		guest = g
	}
	success := "Guest removed successfully!"
	if invited {
		success = "Guest invited successfully!"
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"guest":   guest,
		"updated": updated,
		"invited": invited,
		"success": success,
	})
}

// PhotoUpload godoc
// @Summary Attach a photo memory to an event
// @Tags events
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param event formData string true "Event ID"
// @Param date formData string false "Display date for the memory"
// @Param location formData string false "Display location; defaults to the event location"
// @Param pic formData file true "Image file"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string "e.g. {\"pic\": \"Images only!\"}"
// @Router /events/photo-upload [post]
func (c *EventController) PhotoUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxPicSize); err != nil {
		helpers.WriteFieldError(w, http.StatusBadRequest, "pic", "Invalid upload!")
		return
	}
	eventID := r.FormValue("event")
	if eventID == "" {
		helpers.WriteFieldError(w, http.StatusBadRequest, "event", "Must not be empty!")
		return
	}
	file, header, err := r.FormFile("pic")
	if err != nil {
		helpers.WriteFieldError(w, http.StatusBadRequest, "pic", "A photo is required!")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.ValidatePicType(contentType, header.Filename) {
		helpers.WriteFieldError(w, http.StatusBadRequest, "pic", "Images only!")
		return
	}
	pic, err := io.ReadAll(io.LimitReader(file, maxPicSize+1))
	if err != nil || len(pic) > maxPicSize {
		helpers.WriteFieldError(w, http.StatusBadRequest, "pic", "Image too large!")
		return
	}

	memory := domain.Memory{
		Date:     r.FormValue("date"),
		Location: r.FormValue("location"),
	}
	updated, err := c.Service.AddMemory(r.Context(), eventID, user, memory, pic, contentType)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"success": "Photo added successfully!",
	})
}

// RemindersRequest is the request body for POST /events/reminders.
type RemindersRequest struct {
	Event string `json:"event"`
}

// Validate implements Validator.
func (req RemindersRequest) Validate() map[string]string {
	if req.Event == "" {
		return map[string]string{"event": "Must not be empty!"}
	}
	return nil
}

// Reminders godoc
// @Summary Send reminders to invited guests who have not RSVPed
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reminders body RemindersRequest true "Event ID"
// @Success 200 {object} map[string]string
// @Router /events/reminders [post]
func (c *EventController) Reminders(w http.ResponseWriter, r *http.Request) {
	var req RemindersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := c.currentUser(w, r); !ok {
		return
	}
	if err := c.Service.SendReminders(r.Context(), req.Event); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"success": "Reminders sent!",
	})
}

// Delete godoc
// @Summary Delete an event
// @Description Only the creator may delete. If the event date is still ahead, every invited guest gets a cancellation message on their preferred channel.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteFieldError(w, http.StatusBadRequest, "event", "Must not be empty!")
		return
	}
	user, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), eventID, user); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"success": "Event deleted successfully!",
	})
}
