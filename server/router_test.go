package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/dal/redis"
	"finance-hertz/biz/engine"
	"finance-hertz/biz/handler"
	"finance-hertz/biz/quote"
	"finance-hertz/biz/service"
	"finance-hertz/conf"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/test/assert"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/shopspring/decimal"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *route.Engine
	quotes *quote.StaticProvider
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	trading := conf.Trading{
		StartingCash:         "10000.00",
		Currency:             "usd",
		IndicatorPrecision:   2,
		RecordOpeningDeposit: true,
		MinUsernameLength:    3,
	}
	authConf := conf.Auth{
		JWTSecret:   "router-test-secret-0123",
		ExpireHours: 1,
		CookieName:  "session",
		BcryptCost:  4,
	}
	store := pg.OpenTestStore(t)
	quotes := quote.NewStaticProvider(map[string]conf.StaticQuote{
		"AAPL": {Name: "Apple Inc.", Price: 100},
		"MSFT": {Name: "Microsoft Corporation", Price: 250},
	})
	pool, err := engine.NewPool(4)
	assert.Nil(t, err)
	t.Cleanup(pool.Release)

	auth, err := service.NewAuthService(store, redis.NewRevocations(nil), authConf, trading)
	assert.Nil(t, err)
	index := service.NewSymbolIndex()
	valuation := service.NewValuation(store, quotes, pool, trading.IndicatorPrecision, trading.Currency)
	hub := NewHub(pool)
	h := &handler.Handler{
		Auth:      auth,
		Trade:     service.NewTradeService(store, quotes, valuation, index, hub, trading.Currency),
		Valuation: valuation,
		History:   service.NewHistoryService(store),
		Index:     index,
		Quotes:    quotes,
		Currency:  trading.Currency,
		Ping: func(ctx context.Context) error {
			sqlDB, err := store.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	r := route.NewEngine(config.NewOptions([]config.Option{}))
	Register(r, h, hub)
	return &testServer{t: t, engine: r, quotes: quotes}
}

func (s *testServer) do(method, url string, body interface{}) (int, apiResponse, *ut.ResponseRecorder) {
	s.t.Helper()
	var (
		reqBody *ut.Body
		headers []ut.Header
	)
	if body != nil {
		b, err := json.Marshal(body)
		assert.Nil(s.t, err)
		reqBody = &ut.Body{Body: bytes.NewReader(b), Len: len(b)}
		headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	}
	if s.token != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + s.token})
	}
	w := ut.PerformRequest(s.engine, method, url, reqBody, headers...)
	resp := w.Result()
	var out apiResponse
	if strings.HasPrefix(string(resp.Header.ContentType()), "application/json") {
		assert.Nil(s.t, json.Unmarshal(resp.Body(), &out))
	}
	return resp.StatusCode(), out, w
}

func (s *testServer) login(username string) {
	s.t.Helper()
	status, resp, w := s.do("POST", "/api/register", map[string]string{
		"username":     username,
		"password":     "hunter2",
		"confirmation": "hunter2",
	})
	assert.DeepEqual(s.t, 200, status)
	cookie := protocol.AcquireCookie()
	defer protocol.ReleaseCookie(cookie)
	cookie.SetKey("session")
	assert.Assert(s.t, w.Result().Header.Cookie(cookie))
	assert.Assert(s.t, len(cookie.Value()) > 0)
	var data struct {
		Token string `json:"token"`
	}
	assert.Nil(s.t, json.Unmarshal(resp.Data, &data))
	assert.Assert(s.t, data.Token != "")
	s.token = data.Token
}

func decField(t *testing.T, raw json.RawMessage, field string) decimal.Decimal {
	t.Helper()
	var m map[string]json.RawMessage
	assert.Nil(t, json.Unmarshal(raw, &m))
	var d decimal.Decimal
	assert.Nil(t, json.Unmarshal(m[field], &d))
	return d
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/portfolio", "/api/history", "/api/quote?symbol=AAPL"} {
		status, resp, _ := s.do("GET", path, nil)
		assert.DeepEqual(t, 401, status)
		assert.DeepEqual(t, handler.CodeUnauthorized, resp.Code)
	}
	s.token = "not-a-token"
	status, _, _ := s.do("GET", "/api/portfolio", nil)
	assert.DeepEqual(t, 401, status)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)
	s.login("alice")

	status, resp, _ := s.do("POST", "/api/register", map[string]string{
		"username": "ALICE", "password": "x", "confirmation": "x",
	})
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeUsernameTaken, resp.Code)

	token := s.token
	s.token = ""
	status, resp, _ = s.do("POST", "/api/login", map[string]string{"username": "alice", "password": "wrong"})
	assert.DeepEqual(t, 403, status)
	assert.DeepEqual(t, "invalid username or password", resp.Message)

	status, _, _ = s.do("POST", "/api/login", map[string]string{"username": "Alice", "password": "hunter2"})
	assert.DeepEqual(t, 200, status)

	s.token = token
	status, _, _ = s.do("POST", "/api/logout", nil)
	assert.DeepEqual(t, 200, status)
	status, _, _ = s.do("GET", "/api/portfolio", nil)
	assert.DeepEqual(t, 401, status)
}

func TestTradingFlow(t *testing.T) {
	s := newTestServer(t)
	s.login("alice")

	status, resp, _ := s.do("GET", "/api/quote?symbol=aapl", nil)
	assert.DeepEqual(t, 200, status)
	assert.Assert(t, strings.Contains(string(resp.Data), `"price_display":"$100.00"`), string(resp.Data))

	status, resp, _ = s.do("GET", "/api/quote?symbol=ZZZZ", nil)
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeSymbolNotFound, resp.Code)

	status, resp, _ = s.do("POST", "/api/buy", map[string]interface{}{"symbol": "AAPL", "shares": 10})
	assert.DeepEqual(t, 200, status)
	assert.Assert(t, decField(t, resp.Data, "cash").Equal(decimal.NewFromInt(9000)))

	status, resp, _ = s.do("POST", "/api/buy", map[string]interface{}{"symbol": "MSFT", "shares": 1000})
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeBalance, resp.Code)

	status, resp, _ = s.do("POST", "/api/sell", map[string]interface{}{"symbol": "AAPL", "shares": 11})
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeQuantity, resp.Code)

	status, resp, _ = s.do("POST", "/api/buy", map[string]interface{}{"symbol": "AAPL", "shares": 0})
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeBadRequest, resp.Code)

	s.quotes.Set("AAPL", "Apple Inc.", decimal.NewFromInt(120))
	status, resp, _ = s.do("POST", "/api/sell_1", map[string]string{"symbol": "AAPL"})
	assert.DeepEqual(t, 200, status)
	var quick struct {
		Success   bool   `json:"success"`
		Quantity  int64  `json:"quantity"`
		Indicator string `json:"indicator"`
	}
	assert.Nil(t, json.Unmarshal(resp.Data, &quick))
	assert.Assert(t, quick.Success)
	assert.DeepEqual(t, int64(9), quick.Quantity)
	assert.DeepEqual(t, "above", quick.Indicator)
	assert.Assert(t, decField(t, resp.Data, "grand_total").Equal(decimal.NewFromInt(10200)))

	status, resp, _ = s.do("GET", "/api/portfolio", nil)
	assert.DeepEqual(t, 200, status)
	assert.Assert(t, decField(t, resp.Data, "cash").Equal(decimal.NewFromInt(9120)))
	assert.Assert(t, strings.Contains(string(resp.Data), `"grand_total_display":"$10,200.00"`), string(resp.Data))

	status, resp, _ = s.do("GET", "/api/history", nil)
	assert.DeepEqual(t, 200, status)
	var rows []map[string]interface{}
	assert.Nil(t, json.Unmarshal(resp.Data, &rows))
	assert.DeepEqual(t, 2, len(rows))

	status, resp, _ = s.do("GET", "/api/stocks/search?q=app", nil)
	assert.DeepEqual(t, 200, status)
	assert.Assert(t, strings.Contains(string(resp.Data), `"symbol":"AAPL"`), string(resp.Data))
}

func TestHistoryExport(t *testing.T) {
	s := newTestServer(t)
	s.login("alice")
	status, _, _ := s.do("POST", "/api/buy", map[string]interface{}{"symbol": "MSFT", "shares": 2})
	assert.DeepEqual(t, 200, status)

	status, _, w := s.do("GET", "/api/history/export?format=csv", nil)
	assert.DeepEqual(t, 200, status)
	resp := w.Result()
	assert.Assert(t, strings.HasPrefix(string(resp.Header.ContentType()), "text/csv"))
	assert.Assert(t, strings.Contains(string(resp.Body()), "MSFT,Microsoft Corporation,2,250.00,500.00,usd"), string(resp.Body()))
	assert.Assert(t, strings.Contains(resp.Header.Get("Content-Disposition"), ".csv"))

	status, _, w = s.do("GET", "/api/history/export", nil)
	assert.DeepEqual(t, 200, status)
	assert.Assert(t, bytes.HasPrefix(w.Result().Body(), []byte("PK")))

	status, resp2, _ := s.do("GET", "/api/history/export?format=pdf", nil)
	assert.DeepEqual(t, 400, status)
	assert.DeepEqual(t, handler.CodeBadRequest, resp2.Code)
}

func TestHealthAndNoCache(t *testing.T) {
	s := newTestServer(t)
	status, _, w := s.do("GET", "/healthz", nil)
	assert.DeepEqual(t, 200, status)
	assert.DeepEqual(t, "no-cache, no-store, must-revalidate", w.Result().Header.Get("Cache-Control"))
}
