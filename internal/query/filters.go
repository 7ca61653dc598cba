// Package query builds the dynamic predicate sets, ordering clauses and page
// envelopes shared by the income and expense collections.
package query

import (
	"net/url"
	"time"

	"finanzas/internal/core"
)

// Mode selects which filter shape to build: Ranged for multi-result listings
// (min/max pairs), Exact for single-result lookups (equality).
type Mode int

const (
	Ranged Mode = iota
	Exact
)

// DateLayout is the wire format for every date parameter.
const DateLayout = "2006-01-02"

// Predicate is one structural condition over an element collection. Expr is
// a SQL fragment with placeholders; Args are the bound values. Predicates are
// combined with AND, so their relative order never changes the result set.
type Predicate struct {
	Expr string
	Args []any
}

// BuildFilters translates raw request parameters into an ordered predicate
// set for the given actor and mode.
//
// Ranged mode accepts amount_min/amount_max and date_from/date_to pairs, each
// both-or-neither. Exact mode accepts single amount and date equality values.
// Both modes accept a case-sensitive type substring. For non-admin actors an
// ownership predicate is always appended last, unconditionally; no parameter
// can bypass it.
func BuildFilters(values url.Values, actor core.Actor, mode Mode) ([]Predicate, error) {
	var preds []Predicate

	switch mode {
	case Ranged:
		amountMin := values.Get("amount_min")
		amountMax := values.Get("amount_max")
		if amountMin != "" && amountMax != "" {
			minVal, err := core.ParseAmount(amountMin)
			if err != nil {
				return nil, core.ErrInvalidAmountRange("invalid value in amount range")
			}
			maxVal, err := core.ParseAmount(amountMax)
			if err != nil {
				return nil, core.ErrInvalidAmountRange("invalid value in amount range")
			}
			if minVal >= maxVal {
				return nil, core.ErrInvalidAmountRange("minimum amount must be lower than maximum amount")
			}
			preds = append(preds, Predicate{Expr: "amount >= ? AND amount <= ?", Args: []any{minVal, maxVal}})
		}

		dateFrom := values.Get("date_from")
		dateTo := values.Get("date_to")
		if dateFrom != "" && dateTo != "" {
			from, err := time.Parse(DateLayout, dateFrom)
			if err != nil {
				return nil, core.ErrInvalidDateFormat()
			}
			to, err := time.Parse(DateLayout, dateTo)
			if err != nil {
				return nil, core.ErrInvalidDateFormat()
			}
			if !from.Before(to) {
				return nil, core.ErrInvalidDateRange()
			}
			preds = append(preds, Predicate{Expr: "effective_date >= ? AND effective_date <= ?", Args: []any{from, to}})
		}

	case Exact:
		if amount := values.Get("amount"); amount != "" {
			v, err := core.ParseAmount(amount)
			if err != nil {
				return nil, err
			}
			preds = append(preds, Predicate{Expr: "amount = ?", Args: []any{v}})
		}
		if date := values.Get("date"); date != "" {
			d, err := time.Parse(DateLayout, date)
			if err != nil {
				return nil, core.ErrInvalidDateFormat()
			}
			preds = append(preds, Predicate{Expr: "effective_date = ?", Args: []any{d}})
		}
	}

	if t := values.Get("type"); t != "" {
		preds = append(preds, Predicate{Expr: "type LIKE ?", Args: []any{"%" + t + "%"}})
	}

	// Ownership scoping comes last and cannot be disabled by any parameter.
	if !actor.IsAdmin {
		preds = append(preds, Predicate{Expr: "owner_id = ?", Args: []any{actor.UserID}})
	}

	return preds, nil
}

// DateRangeFilter parses an optional date_from/date_to pair for aggregate
// queries. Both must be present for a range predicate to be built; a lone
// value is ignored, matching the list-filter contract.
func DateRangeFilter(values url.Values) (*Predicate, error) {
	dateFrom := values.Get("date_from")
	dateTo := values.Get("date_to")
	if dateFrom == "" || dateTo == "" {
		return nil, nil
	}
	from, err := time.Parse(DateLayout, dateFrom)
	if err != nil {
		return nil, core.ErrInvalidDateFormat()
	}
	to, err := time.Parse(DateLayout, dateTo)
	if err != nil {
		return nil, core.ErrInvalidDateFormat()
	}
	if !from.Before(to) {
		return nil, core.ErrInvalidDateRange()
	}
	return &Predicate{Expr: "effective_date >= ? AND effective_date <= ?", Args: []any{from, to}}, nil
}

// WhereClause joins a predicate set into a SQL WHERE fragment and its bound
// arguments. An empty set yields an empty clause.
func WhereClause(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clause := " WHERE "
	var args []any
	for i, p := range preds {
		if i > 0 {
			clause += " AND "
		}
		clause += "(" + p.Expr + ")"
		args = append(args, p.Args...)
	}
	return clause, args
}
