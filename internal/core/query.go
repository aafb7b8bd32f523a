// AngelaMos | 2026
// query.go

package core

import (
	"fmt"
	"strconv"
	"strings"
)

const MaxPageSize = 100

// Pagination is a 1-based page request shared by every list endpoint.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps the page to 1 and the size to [1, MaxPageSize], using
// defaultSize when none was asked for.
func (p *Pagination) Normalize(defaultSize int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	p.PageSize = min(p.PageSize, MaxPageSize)
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Filter builds a WHERE clause with numbered placeholders.
type Filter struct {
	conds []string
	args  []any
}

// Arg binds v and returns its placeholder.
func (f *Filter) Arg(v any) string {
	f.args = append(f.args, v)
	return "$" + strconv.Itoa(len(f.args))
}

// Where adds a condition. Conditions are joined with AND.
func (f *Filter) Where(cond string) {
	f.conds = append(f.conds, cond)
}

// Equal adds column = value unless value is empty.
func (f *Filter) Equal(column, value string) {
	if value == "" {
		return
	}
	f.Where(column + " = " + f.Arg(value))
}

// Clause renders " WHERE ..." or "" when there are no conditions.
func (f *Filter) Clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the values bound so far.
func (f *Filter) Args() []any {
	return f.args[:len(f.args):len(f.args)]
}

// Paginate binds the page and returns the LIMIT/OFFSET suffix.
func (f *Filter) Paginate(p Pagination) string {
	return fmt.Sprintf(" LIMIT %s OFFSET %s", f.Arg(p.PageSize), f.Arg(p.Offset()))
}

// Contains wraps s as an ILIKE substring pattern with wildcards escaped.
func Contains(s string) string {
	return "%" + EscapeLike(s) + "%"
}

func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
