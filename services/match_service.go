package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/table-match-manager/metrics"
	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

// Типы событий, рассылаемых подписчикам стола.
const (
	EventMatchUpdated = "MATCH_UPDATED"
	EventQueueUpdated = "QUEUE_UPDATED"
)

// TableNotifier рассылает событие об изменении состояния стола. Реализация -
// websocket-хаб; nil-уведомителя сервис переживает молча.
type TableNotifier interface {
	NotifyTable(eventType string, payload interface{})
}

type StartMatchInput struct {
	Team1Player1ID int  `json:"team1Player1Id"`
	Team1Player2ID *int `json:"team1Player2Id,omitempty"`
	Team2Player1ID int  `json:"team2Player1Id"`
	Team2Player2ID *int `json:"team2Player2Id,omitempty"`
}

type EndMatchResult struct {
	EndedMatch *models.Match `json:"endedMatch"`
	NextMatch  *models.Match `json:"nextMatch"`
}

// ProgressionInfo описывает, как очередь продвинулась после отмены матча.
type ProgressionInfo struct {
	Type          string       `json:"type"` // queue_vs_queue | queue_to_selection
	TeamsUsed     int          `json:"teamsUsed,omitempty"`
	AvailableTeam *models.Team `json:"availableTeam,omitempty"`
}

type CancelMatchResult struct {
	Message         string           `json:"message"`
	NextMatch       *models.Match    `json:"nextMatch"`
	ProgressionInfo *ProgressionInfo `json:"progressionInfo"`
}

type MatchService interface {
	CurrentMatch(ctx context.Context) (*models.Match, error)
	StartMatch(ctx context.Context, input StartMatchInput) (*models.Match, error)
	EndMatch(ctx context.Context, matchID, winnerTeam int) (*EndMatchResult, error)
	CancelMatch(ctx context.Context, matchID int) (*CancelMatchResult, error)
	ForfeitMatch(ctx context.Context, matchID, forfeitingTeam int) (*EndMatchResult, error)
	StartMatchFromQueue(ctx context.Context, queueEntryID int) (*models.Match, error)
}

type matchService struct {
	txm        repositories.TxManager
	matchRepo  repositories.MatchRepository
	queueRepo  repositories.QueueRepository
	personRepo repositories.PersonRepository
	notifier   TableNotifier
	logger     *slog.Logger

	now func() time.Time
}

func NewMatchService(
	txm repositories.TxManager,
	matchRepo repositories.MatchRepository,
	queueRepo repositories.QueueRepository,
	personRepo repositories.PersonRepository,
	notifier TableNotifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		txm:        txm,
		matchRepo:  matchRepo,
		queueRepo:  queueRepo,
		personRepo: personRepo,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *matchService) CurrentMatch(ctx context.Context) (*models.Match, error) {
	match, err := s.matchRepo.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			// Пустой стол - не ошибка.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current match: %w", err)
	}
	return match, nil
}

func (s *matchService) StartMatch(ctx context.Context, input StartMatchInput) (*models.Match, error) {
	if input.Team1Player1ID == 0 || input.Team2Player1ID == 0 {
		return nil, ErrPlayerRequired
	}

	ids := []int{input.Team1Player1ID}
	if input.Team1Player2ID != nil {
		ids = append(ids, *input.Team1Player2ID)
	}
	ids = append(ids, input.Team2Player1ID)
	if input.Team2Player2ID != nil {
		ids = append(ids, *input.Team2Player2ID)
	}
	if hasDuplicateIDs(ids) {
		return nil, ErrDuplicatePlayers
	}

	// Только 1v1 или 2v2.
	if (input.Team1Player2ID != nil) != (input.Team2Player2ID != nil) {
		return nil, ErrTeamSizeMismatch
	}

	var match *models.Match
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, err := s.matchRepo.ListActiveForUpdate(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to check active matches: %w", err)
		}
		if len(active) > 0 {
			for _, m := range active {
				for _, id := range ids {
					if m.ContainsPlayer(id) {
						return ErrPlayerAlreadyPlaying
					}
				}
			}
			return ErrTableOccupied
		}

		team1, err := resolvePersonTeam(ctx, s.personRepo, input.Team1Player1ID, input.Team1Player2ID)
		if err != nil {
			return err
		}
		team2, err := resolvePersonTeam(ctx, s.personRepo, input.Team2Player1ID, input.Team2Player2ID)
		if err != nil {
			return err
		}

		match, err = models.NewMatch(team1, &team2, nil, s.now(), nil, true)
		if err != nil {
			return err
		}
		return s.matchRepo.Create(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesStarted.Inc()
	s.notify(EventMatchUpdated, match)
	s.logger.Info("match started",
		slog.Int("match_id", match.ID),
		slog.String("team1", match.Team1.DisplayName()),
		slog.String("team2", match.Team2.DisplayName()),
	)
	return match, nil
}

func (s *matchService) EndMatch(ctx context.Context, matchID, winnerTeam int) (*EndMatchResult, error) {
	if winnerTeam != 1 && winnerTeam != 2 {
		return nil, ErrInvalidWinnerTeam
	}

	result := &EndMatchResult{}
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetActiveForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrActiveMatchNotFound
			}
			return err
		}
		// Завершить можно только идущий матч; ждущий соперника - нет.
		if !match.IsLive() {
			return ErrActiveMatchNotFound
		}

		winningTeam := &match.Team1
		if winnerTeam == 2 {
			winningTeam = match.Team2
		}
		if winningTeam == nil {
			return ErrWinnerTeamMissing
		}

		endedAt := s.now()
		if err := s.matchRepo.SetResult(ctx, exec, match.ID, winnerTeam, endedAt); err != nil {
			return err
		}
		match.WinnerTeam = &winnerTeam
		match.Winner = winningTeam
		match.EndTime = &endedAt
		match.IsActive = false
		result.EndedMatch = match

		// Победитель остаётся за столом и ждёт следующего соперника.
		next, err := models.NewMatch(*winningTeam, nil, nil, s.now(), nil, true)
		if err != nil {
			return err
		}
		if err := s.matchRepo.Create(ctx, exec, next); err != nil {
			return err
		}
		result.NextMatch = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesEnded.Inc()
	s.notify(EventMatchUpdated, result.NextMatch)
	s.logger.Info("match ended",
		slog.Int("match_id", result.EndedMatch.ID),
		slog.Int("winner_team", winnerTeam),
		slog.Int("next_match_id", result.NextMatch.ID),
	)
	return result, nil
}

func (s *matchService) CancelMatch(ctx context.Context, matchID int) (*CancelMatchResult, error) {
	result := &CancelMatchResult{Message: "Match cancelled successfully"}
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetActiveForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrActiveMatchNotFound
			}
			return err
		}

		if err := s.matchRepo.SetCancelled(ctx, exec, match.ID, s.now()); err != nil {
			return err
		}

		// Автоматическое продвижение очереди: две первые команды играют
		// между собой, единственная команда отдаётся на ручной выбор
		// соперника.
		head, err := s.queueRepo.ListHeadForUpdate(ctx, exec, 2)
		if err != nil {
			return fmt.Errorf("failed to read queue head: %w", err)
		}

		switch {
		case len(head) >= 2 && head[0].Team.Size() == head[1].Team.Size():
			for _, entry := range head {
				if err := s.queueRepo.Delete(ctx, exec, entry.ID); err != nil {
					return err
				}
			}
			next, err := models.NewMatch(head[0].Team, &head[1].Team, nil, s.now(), nil, true)
			if err != nil {
				return err
			}
			if err := s.matchRepo.Create(ctx, exec, next); err != nil {
				return err
			}
			result.NextMatch = next
			result.ProgressionInfo = &ProgressionInfo{Type: "queue_vs_queue", TeamsUsed: 2}
		case len(head) >= 1:
			// Разноразмерные первые команды пару не образуют: голова
			// очереди уходит на ручной выбор соперника, отмена матча
			// из-за очереди не срывается.
			if err := s.queueRepo.Delete(ctx, exec, head[0].ID); err != nil {
				return err
			}
			team := head[0].Team
			result.ProgressionInfo = &ProgressionInfo{Type: "queue_to_selection", AvailableTeam: &team}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesCancelled.Inc()
	s.notify(EventMatchUpdated, result.NextMatch)
	if result.ProgressionInfo != nil {
		s.notify(EventQueueUpdated, result.ProgressionInfo)
	}
	s.logger.Info("match cancelled", slog.Int("match_id", matchID))
	return result, nil
}

func (s *matchService) ForfeitMatch(ctx context.Context, matchID, forfeitingTeam int) (*EndMatchResult, error) {
	if forfeitingTeam != 1 && forfeitingTeam != 2 {
		return nil, ErrInvalidForfeitTeam
	}
	// Сдача - это победа противоположной команды, отдельного состояния нет.
	winnerTeam := 1
	if forfeitingTeam == 1 {
		winnerTeam = 2
	}
	return s.EndMatch(ctx, matchID, winnerTeam)
}

func (s *matchService) StartMatchFromQueue(ctx context.Context, queueEntryID int) (*models.Match, error) {
	var match *models.Match
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.queueRepo.GetByIDForUpdate(ctx, exec, queueEntryID)
		if err != nil {
			if errors.Is(err, repositories.ErrQueueEntryNotFound) {
				return ErrQueueEntryNotFound
			}
			return err
		}

		match, err = s.matchRepo.FindSeekingOpponentForUpdate(ctx, exec)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrNoSeekingOpponent
			}
			return err
		}

		// Команда из очереди обязана совпадать по размеру с ждущей:
		// запись могла попасть в очередь ещё при пустом столе.
		if entry.Team.Size() != match.Team1.Size() {
			if match.Team1.Size() == 2 {
				return ErrQueueNeedsTwoPlayers
			}
			return ErrQueueNeedsOnePlayer
		}

		if err := s.queueRepo.Delete(ctx, exec, entry.ID); err != nil {
			return err
		}

		startedAt := s.now()
		if err := s.matchRepo.SetTeam2(ctx, exec, match.ID, entry.Team, startedAt); err != nil {
			return err
		}
		team := entry.Team
		match.Team2 = &team
		match.StartTime = startedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesStarted.Inc()
	s.notify(EventMatchUpdated, match)
	s.notify(EventQueueUpdated, nil)
	s.logger.Info("match started from queue",
		slog.Int("match_id", match.ID),
		slog.Int("queue_entry_id", queueEntryID),
	)
	return match, nil
}

func (s *matchService) notify(eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyTable(eventType, payload)
}

func hasDuplicateIDs(ids []int) bool {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
