package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxUsernameLength 与 username 列宽一致
const MaxUsernameLength = 64

// User 账户与现金余额
// UsernameKey 为小写用户名，唯一索引保证用户名大小写不敏感唯一
type User struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Username    string          `gorm:"size:64;not null" json:"username"`
	UsernameKey string          `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Hash        string          `gorm:"column:hash;size:255;not null" json:"-"`
	Cash        decimal.Decimal `gorm:"type:numeric(20,4);not null;default:10000.00" json:"cash"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
