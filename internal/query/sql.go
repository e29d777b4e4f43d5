package query

import (
	"fmt"
	"strings"
)

// Statement is a parameterised SQL fragment set for a products query.
type Statement struct {
	// Where is the WHERE clause including the keyword, or empty.
	Where string
	// OrderBy is the ORDER BY clause including the keyword.
	OrderBy string
	// Args are the filter arguments bound to $1..$n in Where.
	Args []any
}

// Count returns the SELECT COUNT(*) statement for the filters.
func (s Statement) Count(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, s.Where)
}

// Select returns the page query. LIMIT and OFFSET are bound after Args.
func (s Statement) Select(columns, table string) string {
	n := len(s.Args)
	return fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d", columns, table, s.Where, s.OrderBy, n+1, n+2)
}

// PageArgs returns Args followed by the LIMIT and OFFSET values of p.
func (s Statement) PageArgs(p Params) []any {
	args := make([]any, 0, len(s.Args)+2)
	args = append(args, s.Args...)
	return append(args, p.Limit, p.Offset())
}

// Build translates normalized params into SQL for PostgreSQL. Column names
// come from the whitelist only; every user value is a bound argument.
func Build(p Params) Statement {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.Keyword != "" {
		ph := arg(likePattern(p.Keyword))
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR category ILIKE %s)", ph, ph))
	}
	if p.Category != "" {
		conds = append(conds, "category ILIKE "+arg(likePattern(p.Category)))
	}
	if p.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*p.MaxPrice))
	}

	var st Statement
	if len(conds) > 0 {
		st.Where = " WHERE " + strings.Join(conds, " AND ")
	}
	st.Args = args

	if _, ok := sortColumns[p.SortBy]; ok {
		dir := "ASC"
		if p.SortOrder == Desc {
			dir = "DESC"
		}
		st.OrderBy = fmt.Sprintf(" ORDER BY %s %s, id ASC", p.SortBy, dir)
	} else {
		st.OrderBy = " ORDER BY id ASC"
	}
	return st
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE match with wildcards escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
