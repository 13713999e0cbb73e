package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/model"

	"github.com/huandu/skiplist"
)

// SymbolIndex 股票代码与名称的前缀检索，大小写不敏感
// key 为 小写文本 + \x00 + stock id，同一文本可对应多只股票
type SymbolIndex struct {
	mu   sync.RWMutex
	list *skiplist.SkipList
	ids  map[uint]struct{}
}

func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{list: skiplist.New(skiplist.String), ids: make(map[uint]struct{})}
}

// Load 从 stocks 表全量加载
func (idx *SymbolIndex) Load(ctx context.Context, store *pg.Store) error {
	stocks, err := store.ListStocks(ctx)
	if err != nil {
		return err
	}
	for _, st := range stocks {
		idx.Add(st)
	}
	return nil
}

func indexKey(text string, id uint) string {
	return strings.ToLower(strings.TrimSpace(text)) + "\x00" + strconv.FormatUint(uint64(id), 10)
}

func (idx *SymbolIndex) Add(st model.Stock) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.list.Set(indexKey(st.Symbol, st.ID), st)
	idx.list.Set(indexKey(st.Name, st.ID), st)
	idx.ids[st.ID] = struct{}{}
}

func (idx *SymbolIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Search 返回代码或名称以 prefix 开头的股票，按匹配文本排序，去重
func (idx *SymbolIndex) Search(prefix string, limit int) []model.Stock {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[uint]struct{})
	var res []model.Stock
	for elem := idx.list.Find(prefix); elem != nil && len(res) < limit; elem = elem.Next() {
		if !strings.HasPrefix(elem.Key().(string), prefix) {
			break
		}
		st := elem.Value.(model.Stock)
		if _, ok := seen[st.ID]; ok {
			continue
		}
		seen[st.ID] = struct{}{}
		res = append(res, st)
	}
	return res
}
