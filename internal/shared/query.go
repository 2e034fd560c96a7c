package shared

import (
	"fmt"
	"strings"
)

// Filter accumulates WHERE clauses and positional args for list queries.
type Filter struct {
	conditions []string
	args       []any
}

// Add appends a condition; each "?" placeholder is replaced with the next $n.
func (f *Filter) Add(cond string, args ...any) {
	for _, arg := range args {
		f.args = append(f.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(f.args)), 1)
	}
	f.conditions = append(f.conditions, cond)
}

// Where renders the WHERE clause, or an empty string when no conditions exist.
func (f *Filter) Where() string {
	if len(f.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conditions, " AND ")
}

// Paginate appends LIMIT/OFFSET placeholders and returns the clause.
func (f *Filter) Paginate(limit, offset int) string {
	f.args = append(f.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(f.args)-1, len(f.args))
}

// Args returns the accumulated positional arguments.
func (f *Filter) Args() []any {
	return f.args
}
