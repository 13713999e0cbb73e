package pg

import (
	"context"
	"errors"
	"strings"

	"finance-hertz/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store 账本存储句柄，业务层显式注入，不依赖包级全局变量
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 在同一个数据库事务内执行 fn，fn 返回错误即回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// UsernameKey 用户名比较键：去空格并转小写
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ---------- users ----------

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.UsernameKey = UsernameKey(u.Username)
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username_key = ?", UsernameKey(username)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("username_key = ?", UsernameKey(username)).
		Count(&count).Error
	return count > 0, err
}

// LockUser 读取用户并加行锁（SELECT ... FOR UPDATE），须在事务内调用
// sqlite 不支持行锁，依赖其库级写锁串行化
func (s *Store) LockUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UpdateCash(ctx context.Context, id uint, cash decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("cash", cash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNotFound
	}
	return nil
}

// ---------- stocks ----------

func (s *Store) FindStockBySymbol(ctx context.Context, symbol string) (*model.Stock, error) {
	var st model.Stock
	err := s.db.WithContext(ctx).Where("stock = ?", symbol).Order("id").First(&st).Error
	if err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

// EnsureStock 按显示名查找股票主数据，不存在则创建，返回是否新建
// 并发首次买入同一股票时，插入冲突方回读已存在的行
func (s *Store) EnsureStock(ctx context.Context, symbol, name string) (*model.Stock, bool, error) {
	st, err := s.findStockByName(ctx, name)
	if err == nil {
		return st, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created, err := s.insertStock(ctx, &model.Stock{Symbol: symbol, Name: name})
	if err != nil {
		return nil, false, err
	}
	if created != nil {
		return created, true, nil
	}
	st, err = s.findStockByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return st, false, nil
}

func (s *Store) findStockByName(ctx context.Context, name string) (*model.Stock, error) {
	var st model.Stock
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&st).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

// insertStock name 冲突时不插入也不报错，返回 nil
func (s *Store) insertStock(ctx context.Context, st *model.Stock) (*model.Stock, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(st)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return st, nil
}

func (s *Store) ListStocks(ctx context.Context) ([]model.Stock, error) {
	var stocks []model.Stock
	err := s.db.WithContext(ctx).Order("stock").Find(&stocks).Error
	return stocks, err
}

// ---------- transactions ----------

func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

// ListUserTransactions 用户所有股票流水（不含入金记录），附带股票主数据
func (s *Store) ListUserTransactions(ctx context.Context, userID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := s.db.WithContext(ctx).
		Preload("Stock").
		Where("user_id = ? AND stock_id IS NOT NULL", userID).
		Order("id").
		Find(&txs).Error
	return txs, err
}

// ListUserStockTransactions 用户某只股票的流水
func (s *Store) ListUserStockTransactions(ctx context.Context, userID, stockID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := s.db.WithContext(ctx).
		Preload("Stock").
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		Order("id").
		Find(&txs).Error
	return txs, err
}

// CountUserTransactions 包括隐藏的入金记录
func (s *Store) CountUserTransactions(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListHistory 可见流水，按时间倒序
func (s *Store) ListHistory(ctx context.Context, userID uint) ([]model.HistoryRow, error) {
	var rows []model.HistoryRow
	err := s.db.WithContext(ctx).
		Table("transactions AS t").
		Select("t.id, t.created_on, s.stock AS symbol, s.name, t.quantity, t.price, t.amount, t.currency").
		Joins("JOIN stocks AS s ON s.id = t.stock_id").
		Where("t.user_id = ? AND t.visible = ?", userID, true).
		Order("t.created_on DESC, t.id DESC").
		Scan(&rows).Error
	return rows, err
}
