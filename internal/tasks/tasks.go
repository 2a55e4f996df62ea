package tasks

import (
	"encoding/json"
	"time"
)

// 任务类型常量
const (
	// TypeStatsRollup 按天统计重算任务
	TypeStatsRollup = "stats:rollup"
	// TypeCompetitionSweep 到期比赛清扫任务
	TypeCompetitionSweep = "competition:sweep"
)

// StatsRollupPayload 定义了统计重算任务的数据结构
type StatsRollupPayload struct {
	// RequestedAt 记录任务入队时间，仅用于日志
	RequestedAt time.Time `json:"requested_at"`
}

// NewStatsRollupPayload 创建统计重算任务的序列化 payload
func NewStatsRollupPayload() ([]byte, error) {
	payload := StatsRollupPayload{RequestedAt: time.Now()}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
