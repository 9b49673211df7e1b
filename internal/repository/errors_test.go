package repository

import (
	"errors"
	"fmt"
	"testing"

	"storyloom/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, code: models.CodeNotFound},
		{name: "wrapped record not found", err: fmt.Errorf("load: %w", gorm.ErrRecordNotFound), code: models.CodeNotFound},
		{name: "postgres foreign key", err: &pgconn.PgError{Code: "23503"}, code: models.CodeNotFound},
		{name: "sqlite foreign key", err: errors.New("FOREIGN KEY constraint failed"), code: models.CodeNotFound},
		{name: "gorm foreign key", err: gorm.ErrForeignKeyViolated, code: models.CodeNotFound},
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, code: models.CodeConflict},
		{name: "sqlite unique", err: errors.New("UNIQUE constraint failed: characters.project_id, characters.tag"), code: models.CodeConflict},
		{name: "other postgres error", err: &pgconn.PgError{Code: "40001"}, code: models.CodeInternal},
		{name: "app error passes through", err: models.NewIntegrityError("cycle"), code: models.CodeIntegrity},
		{name: "unknown", err: errors.New("disk full"), code: models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err, "Dialogue", 4)
			assert.Equal(t, tt.code, models.ErrorCode(got))
		})
	}

	assert.NoError(t, TranslateError(nil, "Dialogue", 4))
}
