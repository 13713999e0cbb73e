package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"finance-hertz/biz/model"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

// HTTPProvider IEX 风格报价接口：GET {base}/stock/{symbol}/quote?token=...
type HTTPProvider struct {
	client  *client.Client
	baseURL string
	token   string
	timeout time.Duration
}

type iexQuote struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

func NewHTTPProvider(baseURL, token string, timeout time.Duration) (*HTTPProvider, error) {
	c, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPProvider{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}, nil
}

func (p *HTTPProvider) Lookup(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return model.Quote{}, ErrNotFound
	}
	addr := fmt.Sprintf("%s/stock/%s/quote?token=%s", p.baseURL, url.PathEscape(symbol), url.QueryEscape(p.token))

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()
	req.SetRequestURI(addr)
	req.SetMethod(consts.MethodGet)

	if err := p.client.DoTimeout(ctx, req, resp, p.timeout); err != nil {
		hlog.CtxWarnf(ctx, "[quote] lookup failed, symbol=%s, err=%v", symbol, err)
		return model.Quote{}, ErrNotFound
	}
	if resp.StatusCode() != consts.StatusOK {
		hlog.CtxInfof(ctx, "[quote] lookup status=%d, symbol=%s", resp.StatusCode(), symbol)
		return model.Quote{}, ErrNotFound
	}
	var q iexQuote
	if err := json.Unmarshal(resp.Body(), &q); err != nil {
		hlog.CtxWarnf(ctx, "[quote] bad payload, symbol=%s, err=%v", symbol, err)
		return model.Quote{}, ErrNotFound
	}
	if q.Symbol == "" || q.LatestPrice <= 0 {
		return model.Quote{}, ErrNotFound
	}
	name := q.CompanyName
	if name == "" {
		name = q.Symbol
	}
	return model.Quote{
		Symbol: NormalizeSymbol(q.Symbol),
		Name:   name,
		Price:  decimal.NewFromFloat(q.LatestPrice),
	}, nil
}
