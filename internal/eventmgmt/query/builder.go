package query

import (
	"strconv"
	"strings"
)

// Builder accumulates WHERE predicates with numbered placeholders.
type Builder struct {
	conds []string
	args  []any
}

// NewBuilder starts a builder with the given fixed predicates.
func NewBuilder(fixed ...string) *Builder {
	return &Builder{conds: append([]string(nil), fixed...)}
}

// Arg registers v and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// Where adds a predicate. Each "?" in cond is bound to the next value of args.
func (b *Builder) Where(cond string, args ...any) {
	var sb strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			sb.WriteString(b.Arg(args[i]))
			i++
			continue
		}
		sb.WriteRune(r)
	}
	b.conds = append(b.conds, sb.String())
}

// Clause renders " WHERE a AND b", or "" when there are no predicates.
func (b *Builder) Clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// Args returns the bound values.
func (b *Builder) Args() []any {
	return b.args
}

// Page appends LIMIT/OFFSET for f and returns the clause with the full argument list.
func (b *Builder) Page(f ListFilters) (string, []any) {
	limit := b.Arg(f.Size)
	offset := b.Arg(f.Offset())
	return " LIMIT " + limit + " OFFSET " + offset, b.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Like wraps s for a containment match, escaping LIKE wildcards so they match
// literally. Use it with `ILIKE ? ESCAPE '\'`.
func Like(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
