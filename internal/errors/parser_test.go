package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pgx", &pgconn.PgError{Code: "23505"}, true},
		{"pgx fk", &pgconn.PgError{Code: "23503"}, false},
		{"pq", &pq.Error{Code: "23505"}, true},
		{"sqlite", stderrors.New("UNIQUE constraint failed: users.username"), true},
		{"other", stderrors.New("connection refused"), false},
		{"not found", gorm.ErrRecordNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

type sampleRequest struct {
	Title    string `json:"title" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestFieldErrors(t *testing.T) {
	v := validator.New()
	v.RegisterTagNameFunc(JSONFieldName)

	err := v.Struct(sampleRequest{Quantity: 0})
	fields := FieldErrors(err)

	assert.Equal(t, "This field is required", fields["title"])
	assert.Equal(t, "Ensure this value is greater than or equal to 1", fields["quantity"])
	assert.Nil(t, FieldErrors(stderrors.New("plain")))
}
