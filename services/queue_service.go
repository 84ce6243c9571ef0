package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/table-match-manager/metrics"
	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

type AddToQueueInput struct {
	Player1ID int  `json:"player1Id"`
	Player2ID *int `json:"player2Id,omitempty"`
}

type QueueService interface {
	List(ctx context.Context) ([]*models.QueueEntry, error)
	Add(ctx context.Context, input AddToQueueInput) (*models.QueueEntry, error)
	Remove(ctx context.Context, id int) error
	// DequeueNext снимает и возвращает голову очереди; (nil, nil) для пустой.
	DequeueNext(ctx context.Context) (*models.QueueEntry, error)
}

type queueService struct {
	txm        repositories.TxManager
	queueRepo  repositories.QueueRepository
	matchRepo  repositories.MatchRepository
	personRepo repositories.PersonRepository
	notifier   TableNotifier
	logger     *slog.Logger
}

func NewQueueService(
	txm repositories.TxManager,
	queueRepo repositories.QueueRepository,
	matchRepo repositories.MatchRepository,
	personRepo repositories.PersonRepository,
	notifier TableNotifier,
	logger *slog.Logger,
) QueueService {
	return &queueService{
		txm:        txm,
		queueRepo:  queueRepo,
		matchRepo:  matchRepo,
		personRepo: personRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *queueService) List(ctx context.Context) ([]*models.QueueEntry, error) {
	entries, err := s.queueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return entries, nil
}

func (s *queueService) Add(ctx context.Context, input AddToQueueInput) (*models.QueueEntry, error) {
	if input.Player1ID == 0 {
		return nil, ErrQueuePlayerRequired
	}
	if input.Player2ID != nil && *input.Player2ID == input.Player1ID {
		return nil, ErrDuplicateTeamPlayer
	}

	entry := &models.QueueEntry{}
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, err := s.matchRepo.ListActiveForUpdate(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to check active matches: %w", err)
		}
		for _, m := range active {
			if m.ContainsPlayer(input.Player1ID) {
				return ErrPlayerAlreadyPlaying
			}
			if input.Player2ID != nil && m.ContainsPlayer(*input.Player2ID) {
				return ErrPlayerAlreadyPlaying
			}
		}

		// Размер команды в очереди должен совпадать с форматом текущего
		// матча; при пустом столе размер не ограничен.
		if len(active) > 0 {
			isDoubles := active[0].IsDoubles()
			if isDoubles && input.Player2ID == nil {
				return ErrQueueNeedsTwoPlayers
			}
			if !isDoubles && input.Player2ID != nil {
				return ErrQueueNeedsOnePlayer
			}
		}

		queued, err := s.queueRepo.ListForUpdate(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to list queue: %w", err)
		}
		for _, q := range queued {
			if q.Team.Contains(input.Player1ID) {
				return ErrPlayerAlreadyQueued
			}
			if input.Player2ID != nil && q.Team.Contains(*input.Player2ID) {
				return ErrPlayerAlreadyQueued
			}
		}

		team, err := resolvePersonTeam(ctx, s.personRepo, input.Player1ID, input.Player2ID)
		if err != nil {
			return err
		}
		entry.Team = team
		return s.queueRepo.Create(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.QueueEntriesAdded.Inc()
	s.notify(EventQueueUpdated, entry)
	s.logger.Info("team queued",
		slog.Int("queue_entry_id", entry.ID),
		slog.String("team", entry.Team.DisplayName()),
	)
	return entry, nil
}

func (s *queueService) Remove(ctx context.Context, id int) error {
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.queueRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrQueueEntryNotFound) {
			return ErrQueueEntryNotFound
		}
		return err
	}

	s.notify(EventQueueUpdated, nil)
	s.logger.Info("queue entry removed", slog.Int("queue_entry_id", id))
	return nil
}

func (s *queueService) DequeueNext(ctx context.Context) (*models.QueueEntry, error) {
	var entry *models.QueueEntry
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		head, err := s.queueRepo.ListHeadForUpdate(ctx, exec, 1)
		if err != nil {
			return fmt.Errorf("failed to read queue head: %w", err)
		}
		if len(head) == 0 {
			return nil
		}
		entry = head[0]
		return s.queueRepo.Delete(ctx, exec, entry.ID)
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.notify(EventQueueUpdated, nil)
		s.logger.Info("queue entry dequeued", slog.Int("queue_entry_id", entry.ID))
	}
	return entry, nil
}

func (s *queueService) notify(eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyTable(eventType, payload)
}
