package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finanzas/internal/core"
)

func newQuoteServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Converter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewConverter(srv.URL, 5*time.Second)
}

func TestSellRateUSDPath(t *testing.T) {
	var gotPath string
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"venta": 1000}`))
	})

	rate, err := conv.SellRate(context.Background(), "usd", "blue")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if rate != 1000 {
		t.Fatalf("rate = %v, want 1000", rate)
	}
	if gotPath != "/dolares/blue" {
		t.Fatalf("path = %q, want /dolares/blue", gotPath)
	}
}

func TestSellRateOtherCurrencyPath(t *testing.T) {
	var gotPath string
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"venta": 1250.5}`))
	})

	// rate kind is ignored for non-USD currencies
	rate, err := conv.SellRate(context.Background(), "eur", "blue")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if rate != 1250.5 {
		t.Fatalf("rate = %v, want 1250.5", rate)
	}
	if gotPath != "/cotizaciones/eur" {
		t.Fatalf("path = %q, want /cotizaciones/eur", gotPath)
	}
}

func TestSellRateMissingVentaDefaultsToOne(t *testing.T) {
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"compra": 990}`))
	})

	rate, err := conv.SellRate(context.Background(), "usd", "oficial")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if rate != 1.0 {
		t.Fatalf("rate = %v, want 1.0 when venta is absent", rate)
	}
}

func TestSellRateUpstreamFailure(t *testing.T) {
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such currency", http.StatusNotFound)
	})

	_, err := conv.SellRate(context.Background(), "xyz", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	e, ok := core.AsError(err)
	if !ok || e.Code != core.CodeQuoteService {
		t.Fatalf("expected quote service error, got %v", err)
	}
	if e.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", e.Status, http.StatusBadRequest)
	}
}

func TestConvertDividesBySellRate(t *testing.T) {
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"venta": 1000}`))
	})

	got, err := conv.Convert(context.Background(), 5000, "usd", "oficial")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got != 5.0 {
		t.Fatalf("converted = %v, want 5.0", got)
	}
}

func TestConvertAllSingleFetch(t *testing.T) {
	calls := 0
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"venta": 100}`))
	})

	elements := []core.Element{
		{Amount: 100},
		{Amount: 250},
		{Amount: 0},
	}
	if err := conv.ConvertAll(context.Background(), elements, "usd", "oficial"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	if calls != 1 {
		t.Fatalf("quote service called %d times, want 1", calls)
	}
	if elements[0].Amount != 1.0 || elements[1].Amount != 2.5 || elements[2].Amount != 0 {
		t.Fatalf("converted amounts wrong: %v %v %v", elements[0].Amount, elements[1].Amount, elements[2].Amount)
	}
}

func TestConvertAllEmptySkipsFetch(t *testing.T) {
	calls := 0
	_, conv := newQuoteServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"venta": 100}`))
	})

	if err := conv.ConvertAll(context.Background(), nil, "usd", "oficial"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no outbound calls for an empty collection, got %d", calls)
	}
}
