package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"socialevents/internal/domain"
)

func TestParticipationRepository_Create(t *testing.T) {
	ctx := context.Background()
	registeredAt := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO participations`).
					WithArgs("user-1", "ev-1", string(domain.ParticipationPending), registeredAt, nil, nil, nil, nil).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("part-1"))
			},
		},
		{
			name: "duplicate active record returns ErrAlreadyRegistered",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO participations`).
					WithArgs("user-1", "ev-1", string(domain.ParticipationPending), registeredAt, nil, nil, nil, nil).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewParticipationRepository(db)
			p := &domain.Participation{
				UserID:       "user-1",
				EventID:      "ev-1",
				Status:       domain.ParticipationPending,
				RegisteredAt: registeredAt,
			}
			err = repo.Create(ctx, p)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "part-1", p.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestParticipationRepository_GetActiveByEventAndUser(t *testing.T) {
	ctx := context.Background()
	registeredAt := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	approvedAt := registeredAt.Add(time.Hour)

	t.Run("success with nullable fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "event_id", "status", "registered_at",
			"approved_at", "approved_by_id", "cancelled_at", "notes",
		}).AddRow("part-1", "user-1", "ev-1", "CONFIRMED", registeredAt, approvedAt, "org-1", nil, nil)
		mock.ExpectQuery(`SELECT (.+) FROM participations`).
			WithArgs("ev-1", "user-1").
			WillReturnRows(rows)

		repo := NewParticipationRepository(db)
		p, err := repo.GetActiveByEventAndUser(ctx, "ev-1", "user-1")
		require.NoError(t, err)
		require.Equal(t, domain.ParticipationConfirmed, p.Status)
		require.NotNil(t, p.ApprovedAt)
		require.NotNil(t, p.ApprovedByID)
		require.Equal(t, "org-1", *p.ApprovedByID)
		require.Nil(t, p.CancelledAt)
		require.Nil(t, p.Notes)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM participations`).
			WithArgs("ev-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewParticipationRepository(db)
		_, err = repo.GetActiveByEventAndUser(ctx, "ev-1", "user-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestParticipationRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("missing record returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE participations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewParticipationRepository(db)
		err = repo.Update(ctx, &domain.Participation{ID: "ghost", Status: domain.ParticipationCancelled})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestParticipationRepository_CountConfirmedByEvent(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM participations`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewParticipationRepository(db)
	n, err := repo.CountConfirmedByEvent(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
