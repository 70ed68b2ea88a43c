package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"gatherly/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var notifCols = []string{"id", "user_to", "user_from", "event_type", "label", "kind", "opened", "created_at"}

var notifJoinCols = []string{"id", "user_to", "user_from", "event_type", "label", "kind", "opened", "created_at",
	"id", "first_name", "last_name", "profile_pic"}

func TestNotificationRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("inserts or replaces in one statement", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs("user-1", "user-2", "Birthday", "Maya turns 30", "rsvp").
			WillReturnRows(sqlmock.NewRows(notifCols).
				AddRow("n-1", "user-1", "user-2", "Birthday", "Maya turns 30", "rsvp", false, created))

		repo := NewNotificationRepository(db)
		got, err := repo.Upsert(ctx, "user-1", "user-2", "Birthday", "Maya turns 30", "rsvp")
		require.NoError(t, err)
		require.Equal(t, "n-1", got.ID)
		require.False(t, got.Opened)
		require.Equal(t, created, got.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO notifications`).
			WillReturnError(sql.ErrConnDone)

		repo := NewNotificationRepository(db)
		got, err := repo.Upsert(ctx, "user-1", "user-2", "Birthday", "Maya turns 30", "rsvp")
		require.Error(t, err)
		require.Nil(t, got)
	})
}

func TestNotificationRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		unopenedOnly bool
		mock         func(mock sqlmock.Sqlmock)
		wantLen      int
	}{
		{
			name: "full feed with actor projection",
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(notifJoinCols).
					AddRow("n-1", "user-1", "user-2", "Birthday", "Maya turns 30", "invite", true, created,
						"user-2", "Sam", "Reed", "pic.jpg").
					AddRow("n-2", "user-1", "user-3", "Picnic", "Spring picnic", "rsvp", false, created.Add(time.Hour),
						"user-3", "Pat", "Diaz", nil)
				mock.ExpectQuery(`SELECT n.id, n.user_to, n.user_from`).
					WithArgs("user-1").
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name:         "unopened only",
			unopenedOnly: true,
			mock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(notifJoinCols).
					AddRow("n-2", "user-1", "user-3", "Picnic", "Spring picnic", "rsvp", false, created,
						"user-3", "Pat", "Diaz", nil)
				mock.ExpectQuery(`SELECT n.id, n.user_to, n.user_from`).
					WithArgs("user-1").
					WillReturnRows(rows)
			},
			wantLen: 1,
		},
		{
			name: "empty feed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT n.id, n.user_to, n.user_from`).
					WithArgs("user-1").
					WillReturnRows(sqlmock.NewRows(notifJoinCols))
			},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewNotificationRepository(db)
			got, err := repo.ListForUser(ctx, "user-1", tt.unopenedOnly)
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			for _, n := range got {
				require.NotNil(t, n.From)
				require.NotEmpty(t, n.From.FirstName)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_Latest(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns newest entry", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT n.id, n.user_to, n.user_from`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(notifJoinCols).
				AddRow("n-9", "user-1", "user-2", "Birthday", "Maya turns 30", "invite", false, created,
					"user-2", "Sam", "Reed", nil))

		repo := NewNotificationRepository(db)
		got, err := repo.Latest(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "n-9", got.ID)
		require.Equal(t, "Sam", got.From.FirstName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty feed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT n.id, n.user_to, n.user_from`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(notifJoinCols))

		repo := NewNotificationRepository(db)
		got, err := repo.Latest(ctx, "user-1")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.Nil(t, got)
	})
}

func TestNotificationRepository_MarkOpened(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE notifications`).
					WithArgs("n-1", "user-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not owned or missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE notifications`).
					WithArgs("n-1", "user-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewNotificationRepository(db)
			err = repo.MarkOpened(ctx, "n-1", "user-1")
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
