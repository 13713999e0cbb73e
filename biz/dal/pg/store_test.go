package pg

import (
	"context"
	"errors"
	"testing"

	"finance-hertz/biz/model"

	"github.com/cloudwego/hertz/pkg/common/test/assert"
	"github.com/shopspring/decimal"
)

func newUser(t *testing.T, s *Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Hash: "x", Cash: decimal.RequireFromString("10000.00")}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateUserCaseInsensitiveUnique(t *testing.T) {
	s := OpenTestStore(t)
	ctx := context.Background()
	first := newUser(t, s, "Alice")

	err := s.CreateUser(ctx, &model.User{Username: "alice", Hash: "y", Cash: decimal.Zero})
	assert.Assert(t, errors.Is(err, ErrDuplicate), err)

	exists, err := s.UsernameExists(ctx, " ALICE ")
	assert.Nil(t, err)
	assert.Assert(t, exists)

	got, err := s.GetUserByUsername(ctx, "aLiCe")
	assert.Nil(t, err)
	assert.DeepEqual(t, first.ID, got.ID)
	assert.DeepEqual(t, "Alice", got.Username)
	assert.DeepEqual(t, "x", got.Hash)
}

func TestGetUserNotFound(t *testing.T) {
	s := OpenTestStore(t)
	_, err := s.GetUser(context.Background(), 42)
	assert.Assert(t, errors.Is(err, ErrNotFound))
	_, err = s.GetUserByUsername(context.Background(), "nobody")
	assert.Assert(t, errors.Is(err, ErrNotFound))
}

func TestEnsureStockDeduplicatesByName(t *testing.T) {
	s := OpenTestStore(t)
	ctx := context.Background()

	a, created, err := s.EnsureStock(ctx, "AAPL", "Apple Inc.")
	assert.Nil(t, err)
	assert.Assert(t, created)

	b, created, err := s.EnsureStock(ctx, "AAPL", "Apple Inc.")
	assert.Nil(t, err)
	assert.Assert(t, !created)
	assert.DeepEqual(t, a.ID, b.ID)

	found, err := s.FindStockBySymbol(ctx, "AAPL")
	assert.Nil(t, err)
	assert.DeepEqual(t, a.ID, found.ID)

	stocks, err := s.ListStocks(ctx)
	assert.Nil(t, err)
	assert.DeepEqual(t, 1, len(stocks))
}

// 另一个请求抢先插入同名股票时，插入方不报错并回读已有行
func TestInsertStockConflictIsIgnored(t *testing.T) {
	s := OpenTestStore(t)
	ctx := context.Background()

	first, err := s.insertStock(ctx, &model.Stock{Symbol: "AAPL", Name: "Apple Inc."})
	assert.Nil(t, err)
	assert.NotNil(t, first)

	dup, err := s.insertStock(ctx, &model.Stock{Symbol: "AAPL", Name: "Apple Inc."})
	assert.Nil(t, err)
	assert.Assert(t, dup == nil)

	got, created, err := s.EnsureStock(ctx, "AAPL", "Apple Inc.")
	assert.Nil(t, err)
	assert.Assert(t, !created)
	assert.DeepEqual(t, first.ID, got.ID)

	stocks, err := s.ListStocks(ctx)
	assert.Nil(t, err)
	assert.DeepEqual(t, 1, len(stocks))
}

func TestTransactionRollback(t *testing.T) {
	s := OpenTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, "bob")
	st, _, err := s.EnsureStock(ctx, "AAPL", "Apple Inc.")
	assert.Nil(t, err)

	boom := errors.New("boom")
	err = s.Transaction(ctx, func(tx *Store) error {
		locked, err := tx.LockUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &model.Transaction{
			UserID: u.ID, StockID: &st.ID, Quantity: 1,
			Price: decimal.NewFromInt(10), Amount: decimal.NewFromInt(10),
			Currency: "usd", Visible: true,
		}); err != nil {
			return err
		}
		if err := tx.UpdateCash(ctx, u.ID, locked.Cash.Sub(decimal.NewFromInt(10))); err != nil {
			return err
		}
		return boom
	})
	assert.Assert(t, errors.Is(err, boom))

	after, err := s.GetUser(ctx, u.ID)
	assert.Nil(t, err)
	assert.Assert(t, after.Cash.Equal(decimal.RequireFromString("10000")), after.Cash)
	count, err := s.CountUserTransactions(ctx, u.ID)
	assert.Nil(t, err)
	assert.DeepEqual(t, int64(0), count)
}

func TestTransactionForeignKeys(t *testing.T) {
	s := OpenTestStore(t)
	missing := uint(999)
	err := s.CreateTransaction(context.Background(), &model.Transaction{
		UserID: 12345, StockID: &missing, Quantity: 1,
		Price: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1), Currency: "usd",
	})
	assert.NotNil(t, err)
}

func TestHistoryHidesInvisibleRows(t *testing.T) {
	s := OpenTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, "carol")
	st, _, err := s.EnsureStock(ctx, "MSFT", "Microsoft Corporation")
	assert.Nil(t, err)

	rows := []*model.Transaction{
		{UserID: u.ID, Quantity: 0, Price: decimal.Zero, Amount: decimal.RequireFromString("10000"), Currency: "usd", Visible: false},
		{UserID: u.ID, StockID: &st.ID, Quantity: 3, Price: decimal.NewFromInt(250), Amount: decimal.NewFromInt(750), Currency: "usd", Visible: true},
		{UserID: u.ID, StockID: &st.ID, Quantity: -1, Price: decimal.NewFromInt(260), Amount: decimal.NewFromInt(-260), Currency: "usd", Visible: true},
	}
	for _, r := range rows {
		assert.Nil(t, s.CreateTransaction(ctx, r))
	}

	history, err := s.ListHistory(ctx, u.ID)
	assert.Nil(t, err)
	assert.DeepEqual(t, 2, len(history))
	assert.DeepEqual(t, "MSFT", history[0].Symbol)
	assert.DeepEqual(t, int64(-1), history[0].Quantity)
	assert.Assert(t, history[1].Amount.Equal(decimal.NewFromInt(750)))

	txs, err := s.ListUserTransactions(ctx, u.ID)
	assert.Nil(t, err)
	assert.DeepEqual(t, 2, len(txs))
	assert.DeepEqual(t, "Microsoft Corporation", txs[0].Stock.Name)

	perStock, err := s.ListUserStockTransactions(ctx, u.ID, st.ID)
	assert.Nil(t, err)
	assert.DeepEqual(t, 2, len(perStock))
}
