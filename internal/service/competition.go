package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Keknotocrack/hr-music-bot/internal/domain"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	"github.com/Keknotocrack/hr-music-bot/internal/repository"
)

// CompetitionService 负责房间点歌比赛的业务逻辑。
type CompetitionService struct {
	competitions repository.CompetitionRepository
	rooms        repository.RoomRepository
	events       Publisher
}

// NewCompetitionService 创建 CompetitionService 实例。
func NewCompetitionService(competitions repository.CompetitionRepository, rooms repository.RoomRepository, events Publisher) *CompetitionService {
	if competitions == nil {
		panic("CompetitionRepository cannot be nil for CompetitionService")
	}
	if rooms == nil {
		panic("RoomRepository cannot be nil for CompetitionService")
	}
	if events == nil {
		panic("Publisher cannot be nil for CompetitionService")
	}
	return &CompetitionService{competitions: competitions, rooms: rooms, events: events}
}

// Start 在房间内开启一场比赛。
func (s *CompetitionService) Start(ctx context.Context, roomID uint, name, description, prize string, duration time.Duration) (*domain.Competition, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "name": name})

	if name == "" || duration <= 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Competition start rejected: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error loading room for competition")
		return nil, ErrInternalServer
	}

	now := time.Now()
	comp := &domain.Competition{
		RoomID:      roomID,
		Name:        name,
		Description: description,
		Prize:       prize,
		StartTime:   now,
		EndTime:     now.Add(duration),
		IsActive:    true,
	}
	if err := s.competitions.Insert(ctx, comp); err != nil {
		logCtx.WithError(err).Error("Database error creating competition")
		return nil, ErrInternalServer
	}

	logCtx.WithField("competition_id", comp.ID).Info("Competition started")
	s.events.Publish(hub.Event{Type: hub.EventCompetitionStarted, Data: comp})
	return comp, nil
}

// End 结束比赛并记录胜者 (winnerID 可为 nil 表示无胜者)。
func (s *CompetitionService) End(ctx context.Context, competitionID uint, winnerID *uint) error {
	logCtx := logrus.WithField("competition_id", competitionID)

	comp, err := s.competitions.FindByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Warn("Competition end rejected: competition not found")
			return ErrCompetitionNotFound
		}
		logCtx.WithError(err).Error("Database error loading competition")
		return ErrInternalServer
	}

	if err := s.competitions.End(ctx, comp.ID, winnerID); err != nil {
		logCtx.WithError(err).Error("Database error ending competition")
		return ErrInternalServer
	}

	logCtx.Info("Competition ended")
	s.events.Publish(hub.Event{Type: hub.EventCompetitionEnded, Data: map[string]interface{}{
		"id":       comp.ID,
		"roomId":   comp.RoomID,
		"winnerId": winnerID,
	}})
	return nil
}

// SweepExpired 结束所有已过结束时间但仍标记为进行中的比赛，
// 返回被清扫的数量。由后台任务周期性调用。
func (s *CompetitionService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.competitions.FindExpiredActive(ctx, time.Now())
	if err != nil {
		logrus.WithError(err).Error("Database error listing expired competitions")
		return 0, err
	}

	swept := 0
	for _, comp := range expired {
		if err := s.competitions.End(ctx, comp.ID, nil); err != nil {
			logrus.WithError(err).WithField("competition_id", comp.ID).Warn("Failed to end expired competition")
			continue
		}
		swept++
		s.events.Publish(hub.Event{Type: hub.EventCompetitionEnded, Data: map[string]interface{}{
			"id":       comp.ID,
			"roomId":   comp.RoomID,
			"winnerId": nil,
		}})
	}
	if swept > 0 {
		logrus.WithField("count", swept).Info("Expired competitions swept")
	}
	return swept, nil
}

// ListActive 返回房间内进行中的比赛。
func (s *CompetitionService) ListActive(ctx context.Context, roomID uint) ([]domain.Competition, error) {
	comps, err := s.competitions.FindActiveByRoom(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error listing competitions")
		return nil, ErrInternalServer
	}
	return comps, nil
}
