// Package rates supplies currency conversion rates, refreshed on demand from
// a configurable HTTP(S) source and retained across failed refreshes.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"costwatch/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// SettingsStore persists the source URL and the last good rate set so they
// survive restarts. Implemented by *storage.Store.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Setting keys, matching storage's settings table.
const (
	settingRatesURL  = "rates_url"
	settingRatesJSON = "rates_cache"
)

// Cache holds the latest known ExchangeRateSet for the process. It is
// replaced wholesale on each successful refresh and never mutated in place;
// a failed refresh leaves the previous set available as stale fallback.
type Cache struct {
	mu        sync.RWMutex
	set       *core.ExchangeRateSet
	sourceURL string

	client *http.Client
	store  SettingsStore // optional
	group  singleflight.Group
}

// New builds a Cache. If store is non-nil, a previously persisted source URL
// and rate set are loaded; their absence is not an error. sourceURL, when
// non-empty, overrides any persisted URL.
func New(ctx context.Context, store SettingsStore, client *http.Client, sourceURL string) (*Cache, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Cache{client: client, store: store, sourceURL: sourceURL}

	if store != nil {
		if c.sourceURL == "" {
			url, ok, err := store.GetSetting(ctx, settingRatesURL)
			if err != nil {
				return nil, fmt.Errorf("load rates url: %w", err)
			}
			if ok {
				c.sourceURL = url
			}
		}

		raw, ok, err := store.GetSetting(ctx, settingRatesJSON)
		if err != nil {
			return nil, fmt.Errorf("load cached rates: %w", err)
		}
		if ok {
			var set core.ExchangeRateSet
			if err := json.Unmarshal([]byte(raw), &set); err != nil || set.Validate() != nil {
				slog.WarnContext(ctx, "Discarding unreadable persisted rate set", "error", err)
			} else {
				c.set = &set
				slog.InfoContext(ctx, "Loaded persisted rate set",
					"base", set.Base, "currencies", len(set.Rates), "fetched_at", set.FetchedAt)
			}
		}
	}

	return c, nil
}

// Configure sets the source URL for subsequent refreshes. The cached set, if
// any, stays valid until a refresh replaces it.
func (c *Cache) Configure(ctx context.Context, sourceURL string) error {
	c.mu.Lock()
	c.sourceURL = sourceURL
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SetSetting(ctx, settingRatesURL, sourceURL); err != nil {
			return fmt.Errorf("persist rates url: %w", err)
		}
	}
	slog.InfoContext(ctx, "Rate source configured", "url", sourceURL)
	return nil
}

// SourceURL returns the currently configured source URL.
func (c *Cache) SourceURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sourceURL
}

// Current returns a copy of the cached set, and false when nothing has been
// fetched or loaded yet.
func (c *Cache) Current() (core.ExchangeRateSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.set == nil {
		return core.ExchangeRateSet{}, false
	}
	return copySet(*c.set), true
}

// Refresh fetches the source URL, parses and validates the payload, and
// replaces the cached set. On any failure the previous set is retained and
// the error wraps core.ErrRateFetch (or core.ErrTimeout on deadline).
// Concurrent refreshes against the same URL are collapsed into one fetch.
func (c *Cache) Refresh(ctx context.Context) (core.ExchangeRateSet, error) {
	url := c.SourceURL()
	if url == "" {
		return core.ExchangeRateSet{}, fmt.Errorf("%w: no source url configured", core.ErrRateFetch)
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		return c.fetch(ctx, url)
	})
	if err != nil {
		return core.ExchangeRateSet{}, err
	}
	set := v.(core.ExchangeRateSet)

	c.mu.Lock()
	c.set = &set
	c.mu.Unlock()

	c.persist(ctx, set)

	slog.InfoContext(ctx, "Rate set refreshed",
		"base", set.Base, "currencies", len(set.Rates), "source", url)
	return copySet(set), nil
}

func (c *Cache) fetch(ctx context.Context, url string) (core.ExchangeRateSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.ExchangeRateSet{}, fmt.Errorf("%w: build request: %v", core.ErrRateFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.ExchangeRateSet{}, fmt.Errorf("%w: %v", core.ErrTimeout, err)
		}
		return core.ExchangeRateSet{}, fmt.Errorf("%w: %v", core.ErrRateFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.ExchangeRateSet{}, fmt.Errorf("%w: source returned status %d", core.ErrRateFetch, resp.StatusCode)
	}

	var payload struct {
		Base  string                     `json:"base"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.ExchangeRateSet{}, fmt.Errorf("%w: parse response: %v", core.ErrRateFetch, err)
	}

	set := core.ExchangeRateSet{
		Base:      payload.Base,
		Rates:     payload.Rates,
		FetchedAt: time.Now().UTC(),
	}
	if err := set.Validate(); err != nil {
		return core.ExchangeRateSet{}, err
	}
	return set, nil
}

// persist writes the set back to settings; persistence is best-effort
// offline continuity and never fails a successful refresh.
func (c *Cache) persist(ctx context.Context, set core.ExchangeRateSet) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(set)
	if err == nil {
		err = c.store.SetSetting(ctx, settingRatesJSON, string(raw))
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to persist rate set", "error", err)
	}
}

// GetRate returns the factor converting one unit of from into to, derived
// from the cached set. It fails wrapping core.ErrUnknownCurrency when either
// code is absent, or when nothing has been cached at all.
func (c *Cache) GetRate(from, to string) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.set == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate set cached", core.ErrUnknownCurrency)
	}
	return c.set.Rate(from, to)
}

func copySet(set core.ExchangeRateSet) core.ExchangeRateSet {
	rates := make(map[string]decimal.Decimal, len(set.Rates))
	for code, rate := range set.Rates {
		rates[code] = rate
	}
	set.Rates = rates
	return set
}
