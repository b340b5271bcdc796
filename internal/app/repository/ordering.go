package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
)

var ErrInvalidOrdering = errors.New("invalid ordering field")

// orderBy turns "price,-title" into an ORDER BY clause using the allowed
// field -> column map. Empty input yields fallback.
func orderBy(raw string, allowed map[string]string, fallback string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	parts := make([]string, 0, 2)
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		column, ok := allowed[field]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidOrdering, field)
		}
		parts = append(parts, column+" "+dir)
	}
	if len(parts) == 0 {
		return fallback, nil
	}
	// stable paging
	return strings.Join(parts, ", ") + ", " + fallback, nil
}

func paginate(q *gorm.DB, p pagination.Params) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s literally.
// Use it with "LIKE ? ESCAPE '\'".
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
