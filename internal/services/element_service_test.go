package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/currency"
	"finanzas/internal/storage"
)

func newTestElementService(t *testing.T) (*ElementService, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	converter := currency.NewConverter("http://127.0.0.1:0", time.Second)
	return NewElementService(repo, converter, nil), repo
}

func strPtr(s string) *string { return &s }

func amountPtr(v float64) *core.Amount {
	return &core.Amount{Value: v, Valid: true, Present: true}
}

func addElement(t *testing.T, svc *ElementService, actor core.Actor, kind core.ElementKind, desc string, amount float64, typ, date string) *ElementRecord {
	t.Helper()
	payload := ElementPayload{
		Description: strPtr(desc),
		Amount:      amountPtr(amount),
		Type:        strPtr(typ),
	}
	if date != "" {
		payload.Date = &date
	}
	record, err := svc.Add(context.Background(), payload, actor, kind)
	if err != nil {
		t.Fatalf("add element: %v", err)
	}
	return record
}

func TestAddAndListRoundTrip(t *testing.T) {
	svc, _ := newTestElementService(t)
	actor := core.Actor{UserID: 1}

	record := addElement(t, svc, actor, core.KindExpense, "groceries", 1250.5, "food", "2025-03-15")
	if record.Amount != "1250.50" {
		t.Fatalf("amount = %q, want formatted two decimals", record.Amount)
	}
	if record.Date != "2025-03-15" {
		t.Fatalf("date = %q, want 2025-03-15", record.Date)
	}
	if record.OwnerID != 1 {
		t.Fatalf("owner = %d, want 1", record.OwnerID)
	}

	env, err := svc.List(context.Background(), url.Values{}, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	items := env["expenses"].([]ElementRecord)
	if len(items) != 1 || items[0].Description != "groceries" {
		t.Fatalf("list mismatch: %+v", items)
	}
	info := env["additional_info"].(map[string]string)
	if info["currency"] != "ars" || info["rate_kind"] != "oficial" {
		t.Fatalf("additional_info = %v", info)
	}
}

func TestListOwnershipScoping(t *testing.T) {
	svc, _ := newTestElementService(t)

	addElement(t, svc, core.Actor{UserID: 1}, core.KindIncome, "mine", 100, "salary", "")
	addElement(t, svc, core.Actor{UserID: 2}, core.KindIncome, "theirs", 200, "salary", "")

	env, err := svc.List(context.Background(), url.Values{}, core.Actor{UserID: 1}, core.KindIncome)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	items := env["incomes"].([]ElementRecord)
	if len(items) != 1 || items[0].Description != "mine" {
		t.Fatalf("non-admin must only see own rows: %+v", items)
	}

	env, err = svc.List(context.Background(), url.Values{}, core.Actor{UserID: 9, IsAdmin: true}, core.KindIncome)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if got := len(env["incomes"].([]ElementRecord)); got != 2 {
		t.Fatalf("admin must see all rows, got %d", got)
	}
}

func TestListRejectsBogusCriterionBeforeQuerying(t *testing.T) {
	svc, _ := newTestElementService(t)
	values := url.Values{}
	values.Set("criterion", "bogus")

	_, err := svc.List(context.Background(), values, core.Actor{UserID: 1}, core.KindIncome)
	if err == nil {
		t.Fatalf("expected error")
	}
	e, ok := core.AsError(err)
	if !ok || e.Code != core.CodeInvalidCriterion {
		t.Fatalf("expected invalid criterion error, got %v", err)
	}
}

func TestGetOneAbsentIsNotAnError(t *testing.T) {
	svc, _ := newTestElementService(t)

	env, err := svc.GetOne(context.Background(), url.Values{}, core.Actor{UserID: 1}, core.KindIncome)
	if err != nil {
		t.Fatalf("expected ok for no match, got %v", err)
	}
	record, ok := env["income"].(map[string]any)
	if !ok || len(record) != 0 {
		t.Fatalf("expected empty record, got %v", env["income"])
	}
}

func TestGetOneExactMatch(t *testing.T) {
	svc, _ := newTestElementService(t)
	actor := core.Actor{UserID: 1}

	addElement(t, svc, actor, core.KindIncome, "salary march", 5000, "salary", "2025-03-01")
	addElement(t, svc, actor, core.KindIncome, "salary april", 5200, "salary", "2025-04-01")

	values := url.Values{}
	values.Set("amount", "5200")
	env, err := svc.GetOne(context.Background(), values, actor, core.KindIncome)
	if err != nil {
		t.Fatalf("get one: %v", err)
	}
	record, ok := env["income"].(ElementRecord)
	if !ok || record.Description != "salary april" {
		t.Fatalf("wrong record: %v", env["income"])
	}
}

func TestAggregates(t *testing.T) {
	svc, _ := newTestElementService(t)
	actor := core.Actor{UserID: 1}

	addElement(t, svc, actor, core.KindExpense, "a", 100, "x", "2025-01-10")
	addElement(t, svc, actor, core.KindExpense, "b", 300, "x", "2025-02-10")
	addElement(t, svc, core.Actor{UserID: 2}, core.KindExpense, "c", 999, "x", "2025-01-15")

	ctx := context.Background()

	total, err := svc.Aggregate(ctx, AggregateTotal, url.Values{}, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total["total"] != "400.00" {
		t.Fatalf("total = %v, want 400.00", total["total"])
	}

	avg, err := svc.Aggregate(ctx, AggregateAverage, url.Values{}, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if avg["average"] != "200.00" {
		t.Fatalf("average = %v, want 200.00", avg["average"])
	}

	count, err := svc.Aggregate(ctx, AggregateCount, url.Values{}, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count["count"] != int64(2) {
		t.Fatalf("count = %v, want 2", count["count"])
	}
	if _, present := count["additional_info"]; present {
		t.Fatalf("count is not currency-convertible, no additional_info expected")
	}

	// Date range restricts the scope; both bounds required.
	values := url.Values{}
	values.Set("date_from", "2025-01-01")
	values.Set("date_to", "2025-01-31")
	ranged, err := svc.Aggregate(ctx, AggregateTotal, values, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("ranged total: %v", err)
	}
	if ranged["total"] != "100.00" {
		t.Fatalf("ranged total = %v, want 100.00", ranged["total"])
	}
}

func TestAggregateEmptySetIsZero(t *testing.T) {
	svc, _ := newTestElementService(t)

	env, err := svc.Aggregate(context.Background(), AggregateAverage, url.Values{}, core.Actor{UserID: 1}, core.KindIncome)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if env["average"] != "0.00" {
		t.Fatalf("average = %v, want 0.00", env["average"])
	}
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestElementService(t)
	actor := core.Actor{UserID: 1}
	ctx := context.Background()

	cases := []struct {
		name    string
		payload ElementPayload
		code    string
	}{
		{"missing description", ElementPayload{Amount: amountPtr(1), Type: strPtr("x")}, core.CodeValidation},
		{"missing amount", ElementPayload{Description: strPtr("d"), Type: strPtr("x")}, core.CodeValidation},
		{"missing type", ElementPayload{Description: strPtr("d"), Amount: amountPtr(1)}, core.CodeValidation},
		{"empty type", ElementPayload{Description: strPtr("d"), Amount: amountPtr(1), Type: strPtr("")}, core.CodeValidation},
		{"negative amount", ElementPayload{Description: strPtr("d"), Amount: amountPtr(-5), Type: strPtr("x")}, core.CodeInvalidAmount},
		{"non-numeric amount", ElementPayload{Description: strPtr("d"), Amount: &core.Amount{Present: true}, Type: strPtr("x")}, core.CodeInvalidAmount},
		{"bad date", ElementPayload{Description: strPtr("d"), Amount: amountPtr(1), Type: strPtr("x"), Date: strPtr("15/03/2025")}, core.CodeInvalidDateFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tc.payload, actor, core.KindExpense)
			if err == nil {
				t.Fatalf("expected error")
			}
			e, ok := core.AsError(err)
			if !ok || e.Code != tc.code {
				t.Fatalf("code = %v, want %q", err, tc.code)
			}
		})
	}
}

func TestUpdateVisibility(t *testing.T) {
	svc, repo := newTestElementService(t)
	ctx := context.Background()

	record := addElement(t, svc, core.Actor{UserID: 1}, core.KindExpense, "original", 10, "x", "")

	update := ElementPayload{
		ID:          &record.ID,
		Description: strPtr("changed"),
		Amount:      amountPtr(20),
		Type:        strPtr("y"),
	}

	// A stranger sees NotFound, same as a missing row.
	_, err := svc.Update(ctx, update, core.Actor{UserID: 2}, core.KindExpense)
	if e, ok := core.AsError(err); !ok || e.Code != core.CodeNotFound {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}

	// The owner may update.
	updated, err := svc.Update(ctx, update, core.Actor{UserID: 1}, core.KindExpense)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Description != "changed" || updated.Amount != "20.00" {
		t.Fatalf("update not applied: %+v", updated)
	}

	// An admin may update someone else's element; the owner never changes.
	update.Description = strPtr("admin edit")
	adminUpdated, err := svc.Update(ctx, update, core.Actor{UserID: 99, IsAdmin: true}, core.KindExpense)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if adminUpdated.OwnerID != 1 {
		t.Fatalf("owner changed to %d", adminUpdated.OwnerID)
	}

	stored, _ := repo.GetElementByID(ctx, core.KindExpense, record.ID)
	if stored.Description != "admin edit" || stored.OwnerID != 1 {
		t.Fatalf("stored state wrong: %+v", stored)
	}
}

func TestDeleteVisibility(t *testing.T) {
	svc, repo := newTestElementService(t)
	ctx := context.Background()

	record := addElement(t, svc, core.Actor{UserID: 1}, core.KindIncome, "x", 10, "t", "")

	err := svc.Delete(ctx, record.ID, core.Actor{UserID: 2}, core.KindIncome)
	if e, ok := core.AsError(err); !ok || e.Code != core.CodeNotFound {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}

	if err := svc.Delete(ctx, record.ID, core.Actor{UserID: 1}, core.KindIncome); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if got, _ := repo.GetElementByID(ctx, core.KindIncome, record.ID); got != nil {
		t.Fatalf("element survived delete")
	}

	// Deleting an already-gone element reports NotFound.
	err = svc.Delete(ctx, record.ID, core.Actor{UserID: 1}, core.KindIncome)
	if e, ok := core.AsError(err); !ok || e.Code != core.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListCurrencyConversion(t *testing.T) {
	quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"venta": 1000}`))
	}))
	defer quote.Close()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	svc := NewElementService(repo, currency.NewConverter(quote.URL, time.Second), nil)
	actor := core.Actor{UserID: 1}
	addElement(t, svc, actor, core.KindExpense, "imported", 5000, "tech", "")

	values := url.Values{}
	values.Set("currency", "usd")
	values.Set("currency_type", "blue")

	env, err := svc.List(context.Background(), values, actor, core.KindExpense)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	items := env["expenses"].([]ElementRecord)
	if items[0].Amount != "5.00" {
		t.Fatalf("converted amount = %q, want 5.00", items[0].Amount)
	}
	info := env["additional_info"].(map[string]string)
	if info["currency"] != "usd" || info["rate_kind"] != "blue" {
		t.Fatalf("additional_info = %v", info)
	}
}

func TestDistinctTypesPerActor(t *testing.T) {
	svc, _ := newTestElementService(t)

	addElement(t, svc, core.Actor{UserID: 1}, core.KindExpense, "a", 1, "food", "")
	addElement(t, svc, core.Actor{UserID: 1}, core.KindExpense, "b", 2, "food", "")
	addElement(t, svc, core.Actor{UserID: 2}, core.KindExpense, "c", 3, "transport", "")

	types, err := svc.DistinctTypes(context.Background(), core.Actor{UserID: 1}, core.KindExpense)
	if err != nil {
		t.Fatalf("distinct types: %v", err)
	}
	if len(types) != 1 || types[0] != "food" {
		t.Fatalf("types = %v", types)
	}
}
