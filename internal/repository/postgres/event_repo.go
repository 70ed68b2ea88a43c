package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatherly/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, type, date, time_of_day, location, label, description, is_public, rsvp_open, created_by, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (id, type, date, time_of_day, location, label, description, is_public, rsvp_open, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Type, e.Date, e.Time, e.Location, e.Label, e.Description,
		e.IsPublic, e.RSVPOpen, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	for _, g := range e.InvitedGuests {
		if _, err := r.AddGuest(ctx, e.ID, g); err != nil {
			return err
		}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	e, err := r.scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSublists(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date ASC, created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		var descNull sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &e.Date, &e.Time, &e.Location, &e.Label, &descNull,
			&e.IsPublic, &e.RSVPOpen, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if descNull.Valid {
			e.Description = descNull.String
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range events {
		if err := r.loadSublists(ctx, e); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Time != nil {
		add("time_of_day", *upd.Time)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Label != nil {
		add("label", *upd.Label)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.IsPublic != nil {
		add("is_public", *upd.IsPublic)
	}
	if upd.RSVPOpen != nil {
		add("rsvp_open", *upd.RSVPOpen)
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n)
	e, err := r.scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadSublists(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete fetches the full aggregate first so the caller keeps a snapshot of
// the guest list after the rows are gone. Child rows cascade.
func (r *eventRepository) Delete(ctx context.Context, id string) (*domain.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (r *eventRepository) AddGuest(ctx context.Context, eventID string, g domain.GuestRecord) (bool, error) {
	query := `
		INSERT INTO event_guests (event_id, guest_id, name, notify, email, phone, profile_pic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, guest_id) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, g.ID, g.Name, g.Notify, g.Email, g.Phone, g.ProfilePic)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (r *eventRepository) RemoveGuest(ctx context.Context, eventID, guestID string) (bool, error) {
	query := `DELETE FROM event_guests WHERE event_id = $1 AND guest_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, guestID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// ToggleRSVP tries the cancel branch first. When no attendee row was removed
// it inserts one; the primary key absorbs the race where two identical
// confirmations run at once, so at most one row ever exists per user.
func (r *eventRepository) ToggleRSVP(ctx context.Context, eventID string, a domain.AttendeeRecord) (bool, error) {
	del := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, del, eventID, a.ID)
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows == 1 {
		return false, nil
	}
	ins := `
		INSERT INTO event_attendees (event_id, user_id, name, notify, email, phone, headcount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	if _, err := r.DB.ExecContext(ctx, ins, eventID, a.ID, a.Name, a.Notify, a.Email, a.Phone, a.Headcount); err != nil {
		return false, err
	}
	return true, nil
}

func (r *eventRepository) AddMemory(ctx context.Context, eventID string, m domain.Memory) error {
	query := `
		INSERT INTO event_memories (id, event_id, date, location, pic_url, user_name, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, m.ID, eventID, m.Date, m.Location, m.PicURL, m.UserName, m.AddedAt)
	return err
}

func (r *eventRepository) UpgradeGuestIdentity(ctx context.Context, eventID, placeholderID string, g domain.GuestRecord) error {
	query := `
		UPDATE event_guests
		SET guest_id = $1, name = $2, notify = $3, email = $4, phone = $5, profile_pic = $6
		WHERE event_id = $7 AND guest_id = $8
	`
	result, err := r.DB.ExecContext(ctx, query, g.ID, g.Name, g.Notify, g.Email, g.Phone, g.ProfilePic, eventID, placeholderID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) scanEvent(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull sql.NullString
	err := row.Scan(
		&e.ID, &e.Type, &e.Date, &e.Time, &e.Location, &e.Label, &descNull,
		&e.IsPublic, &e.RSVPOpen, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		e.Description = descNull.String
	}
	return e, nil
}

func (r *eventRepository) loadSublists(ctx context.Context, e *domain.Event) error {
	guests, err := r.loadGuests(ctx, e.ID)
	if err != nil {
		return err
	}
	attendees, err := r.loadAttendees(ctx, e.ID)
	if err != nil {
		return err
	}
	memories, err := r.loadMemories(ctx, e.ID)
	if err != nil {
		return err
	}
	e.InvitedGuests = guests
	e.Attendees = attendees
	e.Memories = memories
	return nil
}

func (r *eventRepository) loadGuests(ctx context.Context, eventID string) ([]domain.GuestRecord, error) {
	query := `
		SELECT guest_id, name, notify, email, phone, profile_pic
		FROM event_guests
		WHERE event_id = $1
		ORDER BY invited_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	guests := make([]domain.GuestRecord, 0)
	for rows.Next() {
		var g domain.GuestRecord
		if err := rows.Scan(&g.ID, &g.Name, &g.Notify, &g.Email, &g.Phone, &g.ProfilePic); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (r *eventRepository) loadAttendees(ctx context.Context, eventID string) ([]domain.AttendeeRecord, error) {
	query := `
		SELECT user_id, name, notify, email, phone, headcount
		FROM event_attendees
		WHERE event_id = $1
		ORDER BY confirmed_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]domain.AttendeeRecord, 0)
	for rows.Next() {
		var a domain.AttendeeRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.Notify, &a.Email, &a.Phone, &a.Headcount); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (r *eventRepository) loadMemories(ctx context.Context, eventID string) ([]domain.Memory, error) {
	query := `
		SELECT id, date, location, pic_url, user_name, added_at
		FROM event_memories
		WHERE event_id = $1
		ORDER BY added_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	memories := make([]domain.Memory, 0)
	for rows.Next() {
		var m domain.Memory
		if err := rows.Scan(&m.ID, &m.Date, &m.Location, &m.PicURL, &m.UserName, &m.AddedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}
