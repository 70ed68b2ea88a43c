package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

// Upsert replaces any prior entry with the same composite key in one
// statement, so re-notifying refreshes the timestamp and reopens the entry
// without a delete/insert window.
func (r *notificationRepository) Upsert(ctx context.Context, to, from, eventType, label, kind string) (*domain.Notification, error) {
	query := `
		INSERT INTO notifications (user_to, user_from, event_type, label, kind, opened, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		ON CONFLICT (user_to, user_from, event_type, label, kind)
		DO UPDATE SET opened = FALSE, created_at = NOW()
		RETURNING id, user_to, user_from, event_type, label, kind, opened, created_at
	`
	n := &domain.Notification{}
	err := r.DB.QueryRowContext(ctx, query, to, from, eventType, label, kind).Scan(
		&n.ID, &n.UserTo, &n.UserFrom, &n.EventType, &n.Label, &n.Kind, &n.Opened, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, unopenedOnly bool) ([]*domain.Notification, error) {
	query := `
		SELECT n.id, n.user_to, n.user_from, n.event_type, n.label, n.kind, n.opened, n.created_at,
		       u.id, u.first_name, u.last_name, u.profile_pic
		FROM notifications n
		JOIN users u ON u.id = n.user_from
		WHERE n.user_to = $1 AND n.kind <> 'newMessage'
	`
	if unopenedOnly {
		query += ` AND n.opened = FALSE`
	}
	query += ` ORDER BY n.created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotificationWithActor(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) Latest(ctx context.Context, userID string) (*domain.Notification, error) {
	query := `
		SELECT n.id, n.user_to, n.user_from, n.event_type, n.label, n.kind, n.opened, n.created_at,
		       u.id, u.first_name, u.last_name, u.profile_pic
		FROM notifications n
		JOIN users u ON u.id = n.user_from
		WHERE n.user_to = $1 AND n.kind <> 'newMessage'
		ORDER BY n.created_at DESC
		LIMIT 1
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	return scanNotificationWithActor(rows)
}

func (r *notificationRepository) MarkOpened(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications
		SET opened = TRUE
		WHERE id = $1 AND user_to = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanNotificationWithActor(rows *sql.Rows) (*domain.Notification, error) {
	n := &domain.Notification{From: &domain.PublicUser{}}
	var picNull sql.NullString
	err := rows.Scan(
		&n.ID, &n.UserTo, &n.UserFrom, &n.EventType, &n.Label, &n.Kind, &n.Opened, &n.CreatedAt,
		&n.From.ID, &n.From.FirstName, &n.From.LastName, &picNull,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if picNull.Valid {
		n.From.ProfilePic = picNull.String
	}
	return n, nil
}
