package query

import "finanzas/internal/core"

// orderColumns whitelists the recognized ordering criteria. The criterion
// names are part of the public API contract and map onto the sortable
// columns of both element tables.
var orderColumns = map[string]string{
	"fecha_min":           "effective_date ASC",
	"fecha_max":           "effective_date DESC",
	"monto_min":           "amount ASC",
	"monto_max":           "amount DESC",
	"created_on_min":      "created_at ASC",
	"created_on_max":      "created_at DESC",
	"last_updated_on_min": "updated_at ASC",
	"last_updated_on_max": "updated_at DESC",
}

// OrderClause resolves a named ordering criterion into a SQL ORDER BY body.
// An empty criterion leaves the storage order untouched; an unrecognized one
// fails before any query is executed.
func OrderClause(criterion string) (string, error) {
	if criterion == "" {
		return "", nil
	}
	clause, ok := orderColumns[criterion]
	if !ok {
		return "", core.ErrInvalidCriterion(criterion)
	}
	return clause, nil
}
