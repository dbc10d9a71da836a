// Package reputation answers whether a client address is suspicious.
//
// Checkers compose: a static list of networks from configuration, an
// optional remote lookup service, and a cache in front of both. The
// engine bounds each call with its own timeout and fails open, so a
// checker only has to report errors honestly.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Checker is satisfied by every type in this package.
type Checker = authz.NetworkInspector

// StaticList flags addresses inside any of the configured networks.
// Entries may be CIDRs, dash ranges or single addresses.
type StaticList struct {
	networks []string
}

var _ Checker = (*StaticList)(nil)

func NewStaticList(networks []string) *StaticList {
	return &StaticList{networks: append([]string(nil), networks...)}
}

func (s *StaticList) IsSuspicious(_ context.Context, ip string) (bool, error) {
	return authz.IPInAnyRange(ip, s.networks), nil
}

// Lookup asks a remote reputation service. It expects
// GET <base>?ip=<addr> to answer {"suspicious": bool}.
type Lookup struct {
	base   string
	client *http.Client
}

var _ Checker = (*Lookup)(nil)

func NewLookup(base string, timeout time.Duration) *Lookup {
	return &Lookup{base: base, client: &http.Client{Timeout: timeout}}
}

func (l *Lookup) IsSuspicious(ctx context.Context, ip string) (bool, error) {
	u, err := url.Parse(l.base)
	if err != nil {
		return false, fmt.Errorf("reputation url: %w", err)
	}
	q := u.Query()
	q.Set("ip", ip)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("reputation lookup: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Suspicious bool `json:"suspicious"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("reputation lookup: %w", err)
	}
	return body.Suspicious, nil
}

// Chain reports an address suspicious when any checker does. A checker
// that errors is skipped; the error is returned only if no checker
// produced an answer.
type Chain []Checker

func (c Chain) IsSuspicious(ctx context.Context, ip string) (bool, error) {
	var firstErr error
	answered := false
	for _, checker := range c {
		bad, err := checker.IsSuspicious(ctx, ip)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if bad {
			return true, nil
		}
		answered = true
	}
	if !answered && firstErr != nil {
		return false, firstErr
	}
	return false, nil
}

// Cached remembers answers for ttl. Errors are not cached.
type Cached struct {
	inner Checker
	cache *cache.Cache
}

var _ Checker = (*Cached)(nil)

func NewCached(inner Checker, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) IsSuspicious(ctx context.Context, ip string) (bool, error) {
	if v, ok := c.cache.Get(ip); ok {
		return v.(bool), nil
	}
	bad, err := c.inner.IsSuspicious(ctx, ip)
	if err != nil {
		return false, err
	}
	c.cache.SetDefault(ip, bad)
	return bad, nil
}

// Len is the number of cached answers, expired ones included until the
// janitor runs.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
