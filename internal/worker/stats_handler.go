package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/service"
)

// StatsRollupHandler 处理周期性的按天统计重算任务
type StatsRollupHandler struct {
	stats *service.StatsService
}

// NewStatsRollupHandler 创建 Handler 实例
func NewStatsRollupHandler(stats *service.StatsService) *StatsRollupHandler {
	if stats == nil {
		panic("StatsService cannot be nil for StatsRollupHandler")
	}
	return &StatsRollupHandler{stats: stats}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *StatsRollupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())
	logCtx.Info("Processing stats rollup task...")

	stats, err := h.stats.RecalculateToday(ctx)
	if err != nil {
		// 返回错误让 asynq 按策略重试
		return fmt.Errorf("stats rollup failed: %w", err)
	}

	logCtx.WithFields(logrus.Fields{
		"total_users":  stats.TotalUsers,
		"active_rooms": stats.ActiveRooms,
	}).Info("Stats rollup task complete")
	return nil
}

// CompetitionSweepHandler 处理到期比赛的清扫任务
type CompetitionSweepHandler struct {
	competitions *service.CompetitionService
}

// NewCompetitionSweepHandler 创建 Handler 实例
func NewCompetitionSweepHandler(competitions *service.CompetitionService) *CompetitionSweepHandler {
	if competitions == nil {
		panic("CompetitionService cannot be nil for CompetitionSweepHandler")
	}
	return &CompetitionSweepHandler{competitions: competitions}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *CompetitionSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	swept, err := h.competitions.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("competition sweep failed: %w", err)
	}
	if swept > 0 {
		logCtx.WithField("count", swept).Info("Competition sweep task complete")
	}
	return nil
}
