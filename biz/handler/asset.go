package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"finance-hertz/biz/model"
	"finance-hertz/biz/util"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type holdingView struct {
	model.Holding
	ValueDisplay string `json:"value_display"`
}

func (h *Handler) portfolioView(p *model.Portfolio) map[string]interface{} {
	holdings := make([]holdingView, 0, len(p.Holdings))
	for _, hd := range p.Holdings {
		holdings = append(holdings, holdingView{Holding: hd, ValueDisplay: util.FormatMoney(hd.Value, p.Currency)})
	}
	return map[string]interface{}{
		"holdings":            holdings,
		"cash":                p.Cash,
		"cash_display":        util.FormatMoney(p.Cash, p.Currency),
		"grand_total":         p.GrandTotal,
		"grand_total_display": util.FormatMoney(p.GrandTotal, p.Currency),
		"currency":            p.Currency,
	}
}

// Portfolio 当前持仓估值与总资产
func (h *Handler) Portfolio(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.Valuation.Portfolio(ctx, userID)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	OK(c, h.portfolioView(p))
}

// ListHistory 成交历史，最新在前
func (h *Handler) ListHistory(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.History.History(ctx, userID)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	OK(c, rows)
}

// ExportHistory 导出成交历史，format=xlsx（默认）或 csv
func (h *Handler) ExportHistory(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		Error(c, consts.StatusBadRequest, CodeBadRequest, "format must be xlsx or csv")
		return
	}
	rows, err := h.History.History(ctx, userID)
	if err != nil {
		Fail(ctx, c, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	if format == "csv" {
		err = h.History.ExportCSV(&buf, rows)
		contentType = "text/csv; charset=utf-8"
	} else {
		err = h.History.ExportXLSX(&buf, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"history_%s.%s\"",
		time.Now().Format("20060102"), format))
	c.Data(consts.StatusOK, contentType, buf.Bytes())
}
