package reputation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	calls  int
	answer bool
	err    error
}

func (c *countingChecker) IsSuspicious(context.Context, string) (bool, error) {
	c.calls++
	return c.answer, c.err
}

func TestStaticList(t *testing.T) {
	list := NewStaticList([]string{"203.0.113.0/24", "198.51.100.10-198.51.100.20", "192.0.2.7"})
	ctx := context.Background()

	for ip, want := range map[string]bool{
		"203.0.113.99":  true,
		"198.51.100.15": true,
		"198.51.100.21": false,
		"192.0.2.7":     true,
		"192.0.2.8":     false,
		"not-an-ip":     false,
	} {
		got, err := list.IsSuspicious(ctx, ip)
		require.NoError(t, err)
		assert.Equal(t, want, got, ip)
	}
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") == "203.0.113.5" {
			_, _ = w.Write([]byte(`{"suspicious": true}`))
			return
		}
		if r.URL.Query().Get("ip") == "boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"suspicious": false}`))
	}))
	defer srv.Close()

	l := NewLookup(srv.URL+"/v1/ip", time.Second)

	bad, err := l.IsSuspicious(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, bad)

	bad, err = l.IsSuspicious(context.Background(), "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, bad)

	_, err = l.IsSuspicious(context.Background(), "boom")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	failing := &countingChecker{err: errors.New("unreachable")}
	clean := &countingChecker{}
	dirty := &countingChecker{answer: true}

	bad, err := Chain{failing, clean}.IsSuspicious(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, bad)

	bad, err = Chain{clean, dirty}.IsSuspicious(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, bad)

	_, err = Chain{failing}.IsSuspicious(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestCached(t *testing.T) {
	inner := &countingChecker{answer: true}
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		bad, err := c.IsSuspicious(context.Background(), "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, bad)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	inner := &countingChecker{err: errors.New("timeout")}
	c := NewCached(inner, time.Minute)

	_, err := c.IsSuspicious(context.Background(), "203.0.113.1")
	assert.Error(t, err)
	_, err = c.IsSuspicious(context.Background(), "203.0.113.1")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
