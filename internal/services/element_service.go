// Package services orchestrates storage, currency conversion and the event
// stream behind the HTTP handlers.
package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/currency"
	"finanzas/internal/query"
	"finanzas/internal/storage"
)

// ElementService implements the six financial-element operations, generic
// over the entity kind. Incomes and expenses go through identical code paths;
// only the storage table differs.
type ElementService struct {
	repo      *storage.Repository
	converter *currency.Converter
	events    *amqp.Client
}

// NewElementService wires the service. The events client may be nil; element
// mutations are then simply not published.
func NewElementService(repo *storage.Repository, converter *currency.Converter, events *amqp.Client) *ElementService {
	return &ElementService{repo: repo, converter: converter, events: events}
}

// ElementRecord is the wire projection of an element. Amounts are always
// formatted to two decimals.
type ElementRecord struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	OwnerID     int64  `json:"owner_id"`
}

// ElementPayload is the mutation body for add and update. Pointer fields
// distinguish missing keys from empty values; Amount tolerates both JSON
// numbers and numeric strings.
type ElementPayload struct {
	ID          *int64       `json:"id"`
	Description *string      `json:"description"`
	Amount      *core.Amount `json:"amount"`
	Type        *string      `json:"type"`
	Date        *string      `json:"date"`
}

func toRecord(e core.Element) ElementRecord {
	return ElementRecord{
		ID:          e.ID,
		Description: e.Description,
		Amount:      core.FormatAmount(e.Amount),
		Type:        e.Type,
		Date:        e.EffectiveDate.Format(query.DateLayout),
		OwnerID:     e.OwnerID,
	}
}

func contentsName(kind core.ElementKind) string {
	if kind == core.KindIncome {
		return "incomes"
	}
	return "expenses"
}

func singularName(kind core.ElementKind) string {
	if kind == core.KindIncome {
		return "income"
	}
	return "expense"
}

// currencyParams resolves the requested conversion currency and rate kind.
// The rate-kind sub-parameter only applies to USD; for every other currency
// it is ignored and reported at its default.
func currencyParams(values url.Values) (cur, rateKind string) {
	cur = strings.ToLower(values.Get("currency"))
	if cur == "" {
		cur = currency.LocalCurrency
	}
	rateKind = currency.DefaultRateKind
	if cur == "usd" {
		if v := values.Get("currency_type"); v != "" {
			rateKind = v
		}
	}
	return cur, rateKind
}

func conversionInfo(cur, rateKind string) map[string]string {
	return map[string]string{"currency": cur, "rate_kind": rateKind}
}

// List returns a filtered, optionally ordered and converted page of the
// actor's accessible elements.
func (s *ElementService) List(ctx context.Context, values url.Values, actor core.Actor, kind core.ElementKind) (map[string]any, error) {
	pageParams, err := query.ParsePageParams(values)
	if err != nil {
		return nil, err
	}

	// The criterion whitelist is checked before anything touches storage.
	orderBy, err := query.OrderClause(values.Get("criterion"))
	if err != nil {
		return nil, err
	}

	filters, err := query.BuildFilters(values, actor, query.Ranged)
	if err != nil {
		return nil, err
	}

	elements, err := s.repo.SelectElements(ctx, kind, filters, orderBy)
	if err != nil {
		return nil, err
	}

	cur, rateKind := currencyParams(values)
	if cur != currency.LocalCurrency && len(elements) > 0 {
		if err := s.converter.ConvertAll(ctx, elements, cur, rateKind); err != nil {
			return nil, err
		}
	}

	records := make([]ElementRecord, 0, len(elements))
	for _, e := range elements {
		records = append(records, toRecord(e))
	}

	return query.Paginate(pageParams, records, contentsName(kind), conversionInfo(cur, rateKind))
}

// GetOne returns the first element matching the exact filters, or an empty
// record when nothing matches. Absence is not an error.
func (s *ElementService) GetOne(ctx context.Context, values url.Values, actor core.Actor, kind core.ElementKind) (map[string]any, error) {
	orderBy, err := query.OrderClause(values.Get("criterion"))
	if err != nil {
		return nil, err
	}

	filters, err := query.BuildFilters(values, actor, query.Exact)
	if err != nil {
		return nil, err
	}

	element, err := s.repo.SelectElement(ctx, kind, filters, orderBy)
	if err != nil {
		return nil, err
	}

	cur, rateKind := currencyParams(values)

	var record any = map[string]any{}
	if element != nil {
		if cur != currency.LocalCurrency {
			converted, err := s.converter.Convert(ctx, element.Amount, cur, rateKind)
			if err != nil {
				return nil, err
			}
			element.Amount = converted
		}
		record = toRecord(*element)
	}

	return map[string]any{
		singularName(kind): record,
		"additional_info":  conversionInfo(cur, rateKind),
	}, nil
}

// AggregateKind selects which aggregate an Aggregate call computes.
type AggregateKind string

const (
	AggregateAverage AggregateKind = "average"
	AggregateTotal   AggregateKind = "total"
	AggregateCount   AggregateKind = "count"
)

// Aggregate computes average, total or count over the actor's accessible
// elements, optionally restricted to a date range (both bounds or neither).
// Empty sets yield zero. Average and total honor currency conversion; count
// does not.
func (s *ElementService) Aggregate(ctx context.Context, agg AggregateKind, values url.Values, actor core.Actor, kind core.ElementKind) (map[string]any, error) {
	var preds []query.Predicate

	rangePred, err := query.DateRangeFilter(values)
	if err != nil {
		return nil, err
	}
	if rangePred != nil {
		preds = append(preds, *rangePred)
	}
	if !actor.IsAdmin {
		preds = append(preds, query.Predicate{Expr: "owner_id = ?", Args: []any{actor.UserID}})
	}

	var fn string
	switch agg {
	case AggregateAverage:
		fn = "AVG"
	case AggregateTotal:
		fn = "SUM"
	case AggregateCount:
		fn = "COUNT"
	}

	value, err := s.repo.AggregateElements(ctx, kind, fn, preds)
	if err != nil {
		return nil, err
	}

	if agg == AggregateCount {
		return map[string]any{"count": int64(value)}, nil
	}

	cur, rateKind := currencyParams(values)
	if cur != currency.LocalCurrency && value != 0 {
		value, err = s.converter.Convert(ctx, value, cur, rateKind)
		if err != nil {
			return nil, err
		}
	}

	return map[string]any{
		string(agg):       core.FormatAmount(value),
		"additional_info": conversionInfo(cur, rateKind),
	}, nil
}

// Add creates a new element owned by the actor. Description, amount and type
// are required; the effective date defaults to now.
func (s *ElementService) Add(ctx context.Context, payload ElementPayload, actor core.Actor, kind core.ElementKind) (*ElementRecord, error) {
	if payload.Description == nil || payload.Amount == nil || payload.Type == nil {
		return nil, core.ErrValidation("one or more required fields are missing")
	}

	amount, err := requireAmount(payload.Amount)
	if err != nil {
		return nil, err
	}
	if *payload.Type == "" {
		return nil, core.ErrValidation("one or more required fields are empty")
	}

	element := core.Element{
		OwnerID:     actor.UserID,
		Description: *payload.Description,
		Amount:      amount,
		Type:        *payload.Type,
	}

	if payload.Date != nil && *payload.Date != "" {
		date, err := time.Parse(query.DateLayout, *payload.Date)
		if err != nil {
			return nil, core.ErrInvalidDateFormat()
		}
		element.EffectiveDate = date
	}

	if err := element.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.InsertElement(ctx, kind, &element); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, amqp.OpAdd, element.ID, actor, kind)

	record := toRecord(element)
	return &record, nil
}

// Update mutates an existing element visible to the actor. Owners and admins
// may update; anyone else sees NotFound. The owner never changes.
func (s *ElementService) Update(ctx context.Context, payload ElementPayload, actor core.Actor, kind core.ElementKind) (*ElementRecord, error) {
	if payload.ID == nil || payload.Description == nil || payload.Amount == nil || payload.Type == nil {
		return nil, core.ErrValidation("one or more required fields are missing")
	}

	amount, err := requireAmount(payload.Amount)
	if err != nil {
		return nil, err
	}
	if *payload.Type == "" || *payload.ID == 0 {
		return nil, core.ErrValidation("one or more required fields are empty")
	}

	element, err := s.repo.GetElementByID(ctx, kind, *payload.ID)
	if err != nil {
		return nil, err
	}
	if element == nil || !element.CanAccess(actor) {
		return nil, core.ErrNotFound(singularName(kind))
	}

	element.Description = *payload.Description
	element.Amount = amount
	element.Type = *payload.Type
	if payload.Date != nil && *payload.Date != "" {
		date, err := time.Parse(query.DateLayout, *payload.Date)
		if err != nil {
			return nil, core.ErrInvalidDateFormat()
		}
		element.EffectiveDate = date
	}

	if err := element.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateElement(ctx, kind, element); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, amqp.OpUpdate, element.ID, actor, kind)

	record := toRecord(*element)
	return &record, nil
}

// Delete permanently removes an element visible to the actor, under the same
// visibility rule as Update.
func (s *ElementService) Delete(ctx context.Context, id int64, actor core.Actor, kind core.ElementKind) error {
	element, err := s.repo.GetElementByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if element == nil || !element.CanAccess(actor) {
		return core.ErrNotFound(singularName(kind))
	}

	if err := s.repo.DeleteElement(ctx, kind, id); err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.OpDelete, id, actor, kind)
	return nil
}

// DistinctTypes lists the type tags the actor has used for this kind.
func (s *ElementService) DistinctTypes(ctx context.Context, actor core.Actor, kind core.ElementKind) ([]string, error) {
	return s.repo.DistinctTypes(ctx, kind, actor.UserID)
}

func requireAmount(a *core.Amount) (float64, error) {
	if !a.Present {
		return 0, core.ErrValidation("one or more required fields are empty")
	}
	if !a.Valid {
		return 0, core.ErrInvalidAmount("invalid value in 'amount'")
	}
	if a.Value < 0 {
		return 0, core.ErrInvalidAmount("negative amount is not allowed")
	}
	return a.Value, nil
}

// publishEvent emits a mutation event on a best-effort basis. A down or
// unconfigured broker never fails the request; the mutation is already
// committed.
func (s *ElementService) publishEvent(ctx context.Context, op string, elementID int64, actor core.Actor, kind core.ElementKind) {
	if s.events == nil {
		return
	}
	msg := amqp.NewElementEventMessage(kind.String(), op, elementID, actor.UserID)
	if err := s.events.PublishElementEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish element event",
			"error", err,
			"kind", kind.String(),
			"operation", op,
			"element_id", elementID)
	}
}
