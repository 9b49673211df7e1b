package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"storyloom/internal/models"
	"storyloom/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockPostgres backs a gorm handle with sqlmock so statements are checked as
// Postgres would receive them.
func mockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var selectUser = regexp.QuoteMeta(`SELECT * FROM "users" WHERE`)

func TestUserRepository_GetByID(t *testing.T) {
	tests := []struct {
		name   string
		result func(*sqlmock.ExpectedQuery)
		code   string
	}{
		{
			name: "found",
			result: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
					AddRow(4, "Ines Marlowe", "ines@example.com"))
			},
		},
		{
			name: "missing",
			result: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))
			},
			code: models.CodeNotFound,
		},
		{
			name: "driver failure",
			result: func(q *sqlmock.ExpectedQuery) {
				q.WillReturnError(errors.New("connection reset"))
			},
			code: models.CodeInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := mockPostgres(t)
			tc.result(mock.ExpectQuery(selectUser).WithArgs(4, 1))

			user, err := NewUserRepository(db).GetByID(context.Background(), 4)
			if tc.code == "" {
				require.NoError(t, err)
				assert.Equal(t, "ines@example.com", user.Email)
			} else {
				assert.Equal(t, tc.code, models.ErrorCode(err))
				assert.Nil(t, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_FindByEmailNormalizes(t *testing.T) {
	db, mock := mockPostgres(t)
	mock.ExpectQuery(selectUser).
		WithArgs("writer@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(9, "writer@example.com"))

	user, err := NewUserRepository(db).FindByEmail(context.Background(), "  Writer@Example.COM ")
	require.NoError(t, err)
	assert.EqualValues(t, 9, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_EnsureLosesInsertRace(t *testing.T) {
	db, mock := mockPostgres(t)

	mock.ExpectQuery(selectUser).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()
	mock.ExpectQuery(selectUser).
		WithArgs("late@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(12, "Early", "late@example.com"))

	user, err := NewUserRepository(db).Ensure(context.Background(), "late@example.com", "Late")
	require.NoError(t, err)
	assert.EqualValues(t, 12, user.ID)
	assert.Equal(t, "Early", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_EnsureIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.Ensure(ctx, "Pat@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", first.Email)
	assert.Equal(t, "pat", first.Name)

	again, err := repo.Ensure(ctx, "pat@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "pat", again.Name)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
