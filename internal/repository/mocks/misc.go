package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
)

// CompetitionRepository 是 repository.CompetitionRepository 的 Mock 实现
type CompetitionRepository struct {
	mock.Mock
}

func (m *CompetitionRepository) FindByID(ctx context.Context, id uint) (*domain.Competition, error) {
	args := m.Called(ctx, id)
	var comp *domain.Competition
	if args.Get(0) != nil {
		comp = args.Get(0).(*domain.Competition)
	}
	return comp, args.Error(1)
}

func (m *CompetitionRepository) FindActiveByRoom(ctx context.Context, roomID uint) ([]domain.Competition, error) {
	args := m.Called(ctx, roomID)
	var comps []domain.Competition
	if args.Get(0) != nil {
		comps = args.Get(0).([]domain.Competition)
	}
	return comps, args.Error(1)
}

func (m *CompetitionRepository) FindExpiredActive(ctx context.Context, before time.Time) ([]domain.Competition, error) {
	args := m.Called(ctx, before)
	var comps []domain.Competition
	if args.Get(0) != nil {
		comps = args.Get(0).([]domain.Competition)
	}
	return comps, args.Error(1)
}

func (m *CompetitionRepository) Insert(ctx context.Context, comp *domain.Competition) error {
	args := m.Called(ctx, comp)
	return args.Error(0)
}

func (m *CompetitionRepository) End(ctx context.Context, id uint, winnerID *uint) error {
	args := m.Called(ctx, id, winnerID)
	return args.Error(0)
}

// URLRepository 是 repository.URLRepository 的 Mock 实现
type URLRepository struct {
	mock.Mock
}

func (m *URLRepository) FindByShortCode(ctx context.Context, shortCode string) (*domain.URLMapping, error) {
	args := m.Called(ctx, shortCode)
	var mapping *domain.URLMapping
	if args.Get(0) != nil {
		mapping = args.Get(0).(*domain.URLMapping)
	}
	return mapping, args.Error(1)
}

func (m *URLRepository) Insert(ctx context.Context, mapping *domain.URLMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *URLRepository) IsShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	args := m.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	args := m.Called(ctx, shortCode)
	return args.Error(0)
}

// StatsRepository 是 repository.StatsRepository 的 Mock 实现
type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) UpsertForDate(ctx context.Context, stats *domain.BotStatistics) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *StatsRepository) FindByDate(ctx context.Context, date time.Time) (*domain.BotStatistics, error) {
	args := m.Called(ctx, date)
	var stats *domain.BotStatistics
	if args.Get(0) != nil {
		stats = args.Get(0).(*domain.BotStatistics)
	}
	return stats, args.Error(1)
}
