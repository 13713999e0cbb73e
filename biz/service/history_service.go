package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/model"

	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

var historyHeaders = []string{"Date", "Symbol", "Name", "Shares", "Price", "Amount", "Currency"}

type HistoryService struct {
	store *pg.Store
}

func NewHistoryService(store *pg.Store) *HistoryService {
	return &HistoryService{store: store}
}

// History 可见流水，最新在前
func (s *HistoryService) History(ctx context.Context, userID uint) ([]model.HistoryRow, error) {
	rows, err := s.store.ListHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.HistoryRow{}
	}
	return rows, nil
}

func historyRecord(r model.HistoryRow) []string {
	return []string{
		r.CreatedOn.UTC().Format("2006-01-02 15:04:05"),
		r.Symbol,
		r.Name,
		strconv.FormatInt(r.Quantity, 10),
		r.Price.StringFixed(2),
		r.Amount.StringFixed(2),
		r.Currency,
	}
}

// ExportCSV 写出 CSV（带 UTF-8 BOM，Excel 可直接打开）
func (s *HistoryService) ExportCSV(w io.Writer, rows []model.HistoryRow) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(historyRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX 写出 XLSX，数量与金额按数字单元格写入
func (s *HistoryService) ExportXLSX(w io.Writer, rows []model.HistoryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return err
	}

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(historySheet, cell, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		row := i + 2
		price, _ := r.Price.Round(4).Float64()
		amount, _ := r.Amount.Round(4).Float64()
		values := []interface{}{
			r.CreatedOn.UTC().Format("2006-01-02 15:04:05"),
			r.Symbol,
			r.Name,
			r.Quantity,
			price,
			amount,
			r.Currency,
		}
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(historySheet, "A", "A", 20)
	_ = f.SetColWidth(historySheet, "C", "C", 28)

	return f.Write(w)
}
