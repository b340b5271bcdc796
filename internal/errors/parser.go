package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err comes from a unique index, whichever
// driver produced it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}

	// sqlite and anything wrapped as a string
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

// IsNotFound reports a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

var registerOnce sync.Once

// RegisterValidation points gin's validator at JSON field names and adds the
// custom tags used by request DTOs. Safe to call more than once.
func RegisterValidation(tags map[string]validator.Func) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(JSONFieldName)
		for tag, fn := range tags {
			_ = v.RegisterValidation(tag, fn)
		}
	})
}

// JSONFieldName names a struct field by its json (or form) tag.
func JSONFieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// FieldErrors flattens validator errors into {json_field: message}.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s", fe.Param())
	case "email":
		return "Enter a valid email address"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "rolegroup":
		return "Unknown group"
	case "orderstatus":
		return "Must be pending or delivered"
	}
	return "Invalid value"
}
