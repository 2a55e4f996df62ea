package domain

import "time"

// 方块流水类型。
const (
	TxTypeSpend       = "spend"
	TxTypePurchase    = "purchase"
	TxTypeDailyReward = "daily_reward"
	TxTypeSignupBonus = "signup_bonus"
	TxTypeTipBonus    = "tip_bonus"
)

// CubeTransaction 是方块余额变动的不可变流水记录，只追加不修改。
// 不变式：某用户所有流水的 Amount 之和等于其当前 CubeBalance。
type CubeTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Type        string    `gorm:"not null" json:"type"`
	Amount      int       `gorm:"not null" json:"amount"` // 带符号，扣费为负
	Description string    `json:"description"`
	GoldSpent   int       `json:"gold_spent"` // 仅 purchase 类型使用
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
