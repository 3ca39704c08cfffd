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

func TestGroupMemberRepository_Create(t *testing.T) {
	ctx := context.Background()
	joinedAt := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO group_members`).
					WithArgs("user-1", "grp-1", string(domain.GroupRoleMember), joinedAt, nil, false, nil, nil).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mem-1"))
			},
		},
		{
			name: "duplicate pair returns ErrAlreadyMember",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO group_members`).
					WithArgs("user-1", "grp-1", string(domain.GroupRoleMember), joinedAt, nil, false, nil, nil).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrAlreadyMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewGroupMemberRepository(db)
			m := &domain.GroupMember{
				UserID:   "user-1",
				GroupID:  "grp-1",
				Role:     domain.GroupRoleMember,
				JoinedAt: joinedAt,
			}
			err = repo.Create(ctx, m)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "mem-1", m.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupMemberRepository_GetByGroupAndUser(t *testing.T) {
	ctx := context.Background()
	joinedAt := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	kickedAt := joinedAt.Add(24 * time.Hour)

	t.Run("kicked record is still returned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "group_id", "role", "joined_at",
			"muted_until", "is_kicked", "kicked_at", "kicked_by_id",
		}).AddRow("mem-1", "user-1", "grp-1", "MEMBER", joinedAt, nil, true, kickedAt, "admin-1")
		mock.ExpectQuery(`SELECT (.+) FROM group_members`).
			WithArgs("grp-1", "user-1").
			WillReturnRows(rows)

		repo := NewGroupMemberRepository(db)
		m, err := repo.GetByGroupAndUser(ctx, "grp-1", "user-1")
		require.NoError(t, err)
		require.True(t, m.IsKicked)
		require.NotNil(t, m.KickedAt)
		require.NotNil(t, m.KickedByID)
		require.Equal(t, "admin-1", *m.KickedByID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no record returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM group_members`).
			WithArgs("grp-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewGroupMemberRepository(db)
		_, err = repo.GetByGroupAndUser(ctx, "grp-1", "user-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGroupRepository_ListByMember(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "image", "description", "event_id", "created_at", "updated_at"}).
		AddRow("grp-2", "Ciné club", nil, nil, nil, now, now.Add(time.Hour)).
		AddRow("grp-1", "Rando", nil, "Tous les dimanches", "ev-1", now, now)
	mock.ExpectQuery(`SELECT g.id, g.name, g.image`).
		WithArgs("user-1").
		WillReturnRows(rows)

	repo := NewGroupRepository(db)
	groups, err := repo.ListByMember(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "grp-2", groups[0].ID)
	require.Nil(t, groups[0].Description)
	require.NotNil(t, groups[1].EventID)
	require.Equal(t, "ev-1", *groups[1].EventID)
	require.NoError(t, mock.ExpectationsWereMet())
}
