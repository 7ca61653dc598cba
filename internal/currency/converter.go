// Package currency converts local-currency amounts into foreign valuations
// using an external quote service.
//
// Quote endpoints follow the dolarapi.com layout: USD quotes are published in
// several tiers under /dolares/{rate_kind}; every other currency has a single
// general quote under /cotizaciones/{currency}.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
)

// LocalCurrency is the default currency of stored amounts. Requests for it
// never hit the quote service.
const LocalCurrency = "ars"

// DefaultRateKind is the USD quote tier used when none is requested.
const DefaultRateKind = "oficial"

const DefaultBaseURL = "https://dolarapi.com/v1"

// quote is the subset of the upstream response we consume. A missing sell
// price in an otherwise successful response means a 1.0 no-op rate.
type quote struct {
	Venta *float64 `json:"venta"`
}

// Converter fetches sell-side rates and rescales amounts. Converted amount =
// local amount / sell rate.
type Converter struct {
	baseURL string
	client  *http.Client
}

func NewConverter(baseURL string, timeout time.Duration) *Converter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Converter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SellRate fetches the sell price for a currency. For USD the rateKind
// selects the quote tier; for any other currency it is ignored.
func (c *Converter) SellRate(ctx context.Context, currency, rateKind string) (float64, error) {
	var url string
	if strings.EqualFold(currency, "usd") {
		if rateKind == "" {
			rateKind = DefaultRateKind
		}
		url = fmt.Sprintf("%s/dolares/%s", c.baseURL, rateKind)
	} else {
		url = fmt.Sprintf("%s/cotizaciones/%s", c.baseURL, currency)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, core.ErrQuoteService(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read quote response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "Quote service returned non-success status",
			"status", resp.StatusCode,
			"currency", currency,
			"rate_kind", rateKind)
		return 0, core.ErrQuoteService(resp.StatusCode, string(body))
	}

	var q quote
	if err := json.Unmarshal(body, &q); err != nil {
		return 0, core.ErrQuoteService(resp.StatusCode, "malformed quote body: "+err.Error())
	}
	if q.Venta == nil {
		return 1.0, nil
	}
	return *q.Venta, nil
}

// Convert rescales a single amount into the requested currency.
func (c *Converter) Convert(ctx context.Context, amount float64, currency, rateKind string) (float64, error) {
	rate, err := c.SellRate(ctx, currency, rateKind)
	if err != nil {
		return 0, err
	}
	return amount / rate, nil
}

// ConvertAll rescales every element amount using one single fetched rate.
// One outbound call covers the whole collection, so every converted amount
// within a response uses the identical rate.
func (c *Converter) ConvertAll(ctx context.Context, elements []core.Element, currency, rateKind string) error {
	if len(elements) == 0 {
		return nil
	}
	rate, err := c.SellRate(ctx, currency, rateKind)
	if err != nil {
		return err
	}
	for i := range elements {
		elements[i].Amount = elements[i].Amount / rate
	}
	return nil
}
