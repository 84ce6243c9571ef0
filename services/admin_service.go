package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

type AdminService interface {
	ListAllMatches(ctx context.Context) ([]models.AdminMatch, error)
	DeleteMatch(ctx context.Context, id int) error
}

type adminService struct {
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewAdminService(matchRepo repositories.MatchRepository, logger *slog.Logger) AdminService {
	return &adminService{
		matchRepo: matchRepo,
		logger:    logger,
	}
}

// ListAllMatches отдаёт плоский список всех матчей, включая активные и
// отменённые, от свежих к старым.
func (s *adminService) ListAllMatches(ctx context.Context) ([]models.AdminMatch, error) {
	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	result := make([]models.AdminMatch, 0, len(matches))
	for _, m := range matches {
		am := models.AdminMatch{
			ID:        m.ID,
			Team1:     m.Team1.DisplayName(),
			Team2:     "Waiting for opponent",
			StartTime: m.StartTime,
			EndTime:   m.EndTime,
			IsActive:  m.IsActive,
		}
		if m.Team2 != nil {
			am.Team2 = m.Team2.DisplayName()
		}
		if m.Winner != nil {
			name := m.Winner.DisplayName()
			am.Winner = &name
		}
		result = append(result, am)
	}
	return result, nil
}

// DeleteMatch удаляет завершённый или отменённый матч; активный матч
// удалить нельзя.
func (s *adminService) DeleteMatch(ctx context.Context, id int) error {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to load match %d: %w", id, err)
	}
	if match.IsActive {
		return ErrMatchStillActive
	}

	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "match deleted by admin", slog.Int("match_id", id))
	return nil
}
