package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// StatsService 负责按天运营统计的重算与查询。
// 统计行由后台任务周期性整行重算，读取方永远看到一致的快照。
type StatsService struct {
	stats  repository.StatsRepository
	users  repository.UserRepository
	rooms  repository.RoomRepository
	txRepo repository.TransactionRepository
}

// NewStatsService 创建 StatsService 实例。
func NewStatsService(stats repository.StatsRepository, users repository.UserRepository, rooms repository.RoomRepository, txRepo repository.TransactionRepository) *StatsService {
	if stats == nil || users == nil || rooms == nil || txRepo == nil {
		panic("repositories cannot be nil for StatsService")
	}
	return &StatsService{stats: stats, users: users, rooms: rooms, txRepo: txRepo}
}

// RecalculateToday 重算当天的统计行，已存在则整行覆盖。
func (s *StatsService) RecalculateToday(ctx context.Context) (*domain.BotStatistics, error) {
	logCtx := logrus.WithField("component", "stats")

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Database error counting users for stats rollup")
		return nil, err
	}
	activeRooms, err := s.rooms.CountActive(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Database error counting rooms for stats rollup")
		return nil, err
	}
	circulating, err := s.users.SumBalances(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Database error summing balances for stats rollup")
		return nil, err
	}
	songsPlayed, err := s.txRepo.CountByType(ctx, domain.TxTypeSpend)
	if err != nil {
		logCtx.WithError(err).Error("Database error counting spend transactions for stats rollup")
		return nil, err
	}

	stats := &domain.BotStatistics{
		Date:                  truncateToDay(time.Now()),
		TotalUsers:            int(totalUsers),
		TotalSongsPlayed:      int(songsPlayed),
		TotalCubesCirculating: int(circulating),
		ActiveRooms:           int(activeRooms),
	}
	if err := s.stats.UpsertForDate(ctx, stats); err != nil {
		logCtx.WithError(err).Error("Database error upserting stats row")
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{
		"total_users":  stats.TotalUsers,
		"active_rooms": stats.ActiveRooms,
		"circulating":  stats.TotalCubesCirculating,
	}).Info("Statistics recalculated")
	return stats, nil
}

// GetForDate 返回某天的统计行。
func (s *StatsService) GetForDate(ctx context.Context, date time.Time) (*domain.BotStatistics, error) {
	stats, err := s.stats.FindByDate(ctx, truncateToDay(date))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStatsNotFound
		}
		logrus.WithError(err).Error("Database error loading stats row")
		return nil, ErrInternalServer
	}
	return stats, nil
}

// truncateToDay 把时间戳截断到 UTC 自然日
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
