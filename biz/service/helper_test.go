package service

import (
	"context"
	"sync"
	"testing"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/dal/redis"
	"finance-hertz/biz/engine"
	"finance-hertz/biz/model"
	"finance-hertz/biz/quote"
	"finance-hertz/conf"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []model.TradeEvent
}

func (p *capturePublisher) PublishTrade(_ context.Context, ev model.TradeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) Events() []model.TradeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.TradeEvent(nil), p.events...)
}

type testEnv struct {
	store     *pg.Store
	quotes    *quote.StaticProvider
	auth      *AuthService
	trade     *TradeService
	valuation *Valuation
	history   *HistoryService
	index     *SymbolIndex
	events    *capturePublisher
}

var testTrading = conf.Trading{
	StartingCash:         "10000.00",
	Currency:             "usd",
	IndicatorPrecision:   2,
	RecordOpeningDeposit: true,
	MinUsernameLength:    3,
	ValuationWorkers:     4,
}

var testAuth = conf.Auth{
	JWTSecret:   "test-secret-0123456789",
	ExpireHours: 1,
	CookieName:  "session",
	BcryptCost:  bcrypt.MinCost,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := pg.OpenTestStore(t)
	quotes := quote.NewStaticProvider(map[string]conf.StaticQuote{
		"AAPL": {Name: "Apple Inc.", Price: 100},
		"MSFT": {Name: "Microsoft Corporation", Price: 250},
		"NFLX": {Name: "Netflix, Inc.", Price: 120},
	})
	pool, err := engine.NewPool(testTrading.ValuationWorkers)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(pool.Release)

	auth, err := NewAuthService(store, redis.NewRevocations(nil), testAuth, testTrading)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	events := &capturePublisher{}
	index := NewSymbolIndex()
	valuation := NewValuation(store, quotes, pool, testTrading.IndicatorPrecision, testTrading.Currency)
	return &testEnv{
		store:     store,
		quotes:    quotes,
		auth:      auth,
		trade:     NewTradeService(store, quotes, valuation, index, events, testTrading.Currency),
		valuation: valuation,
		history:   NewHistoryService(store),
		index:     index,
		events:    events,
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{
		Username:     username,
		Password:     "secret",
		Confirmation: "secret",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (e *testEnv) cash(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.Cash
}

func (e *testEnv) ledgerSize(t *testing.T, userID uint) int64 {
	t.Helper()
	n, err := e.store.CountUserTransactions(context.Background(), userID)
	if err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
