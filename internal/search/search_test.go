package search

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTsqueryFunc(t *testing.T) {
	assert.Equal(t, "phraseto_tsquery", tsqueryFunc(ModePhrase))
	assert.Equal(t, "to_tsquery", tsqueryFunc(ModeBoolean))
	assert.Equal(t, "plainto_tsquery", tsqueryFunc(ModeSimple))
	assert.Equal(t, "plainto_tsquery", tsqueryFunc(Mode("unknown")))
}

func TestAppendFilterConditions_NoFilters(t *testing.T) {
	var conds []string
	args := appendFilterConditions(&conds, []any{"query"}, Filters{})
	assert.Len(t, conds, 0)
	assert.Equal(t, []any{"query"}, args)
}

func TestAppendFilterConditions_OwnerAndDateRange(t *testing.T) {
	owner := uuid.New()
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	var conds []string
	args := appendFilterConditions(&conds, []any{"query"}, Filters{
		OwnerID:  &owner,
		DateFrom: &from,
		DateTo:   &to,
	})

	assert.Equal(t, []string{"d.owner_id = $2", "d.created_at >= $3", "d.created_at <= $4"}, conds)
	assert.Equal(t, []any{"query", owner, from, to}, args)
}

func TestAppendFilterConditions_MetaContains(t *testing.T) {
	var conds []string
	args := appendFilterConditions(&conds, []any{"query"}, Filters{
		MetaContains: map[string]any{"status": "draft"},
	})

	assert.Equal(t, []string{"d.meta @> $2::jsonb"}, conds)
	assert.Len(t, args, 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
