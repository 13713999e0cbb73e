package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/common/test/assert"
	"github.com/shopspring/decimal"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[string]conf.StaticQuote{
		"aapl": {Name: "Apple Inc.", Price: 100},
	})
	q, err := p.Lookup(context.Background(), " AAPL ")
	assert.Nil(t, err)
	assert.DeepEqual(t, "AAPL", q.Symbol)
	assert.DeepEqual(t, "Apple Inc.", q.Name)
	assert.Assert(t, q.Price.Equal(decimal.NewFromInt(100)))

	p.Set("AAPL", "Apple Inc.", decimal.RequireFromString("120.5"))
	q, _ = p.Lookup(context.Background(), "aapl")
	assert.Assert(t, q.Price.Equal(decimal.RequireFromString("120.5")))

	p.Remove("aapl")
	_, err = p.Lookup(context.Background(), "AAPL")
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func newQuoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stock/NFLX/quote", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"symbol":"NFLX","companyName":"Netflix, Inc.","latestPrice":312.25}`)
	})
	mux.HandleFunc("/stock/BAD/quote", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	})
	mux.HandleFunc("/stock/ZERO/quote", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"ZERO","companyName":"Zero","latestPrice":0}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProviderLookup(t *testing.T) {
	srv := newQuoteServer(t)
	p, err := NewHTTPProvider(srv.URL+"/", "secret", 2*time.Second)
	assert.Nil(t, err)

	q, err := p.Lookup(context.Background(), "nflx")
	assert.Nil(t, err)
	assert.DeepEqual(t, "NFLX", q.Symbol)
	assert.DeepEqual(t, "Netflix, Inc.", q.Name)
	assert.Assert(t, q.Price.Equal(decimal.RequireFromString("312.25")), q.Price)
}

func TestHTTPProviderFailuresAreNotFound(t *testing.T) {
	srv := newQuoteServer(t)
	p, err := NewHTTPProvider(srv.URL, "secret", 2*time.Second)
	assert.Nil(t, err)

	for _, symbol := range []string{"", "UNKNOWN", "BAD", "ZERO"} {
		_, err := p.Lookup(context.Background(), symbol)
		assert.Assert(t, errors.Is(err, ErrNotFound), symbol)
	}

	wrongToken, err := NewHTTPProvider(srv.URL, "nope", 2*time.Second)
	assert.Nil(t, err)
	_, err = wrongToken.Lookup(context.Background(), "NFLX")
	assert.Assert(t, errors.Is(err, ErrNotFound))

	down, err := NewHTTPProvider("http://127.0.0.1:1", "secret", 200*time.Millisecond)
	assert.Nil(t, err)
	_, err = down.Lookup(context.Background(), "NFLX")
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestCachedProviderWithoutRedis(t *testing.T) {
	static := NewStaticProvider(nil)
	p := NewCachedProvider(static, nil, time.Minute)
	_, ok := p.(*StaticProvider)
	assert.Assert(t, ok)
}
