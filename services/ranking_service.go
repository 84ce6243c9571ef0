package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
	"golang.org/x/sync/errgroup"
)

type RankingService interface {
	GetRankings(ctx context.Context, format models.Format) ([]models.PlayerRanking, error)
}

type rankingService struct {
	matchRepo  repositories.MatchRepository
	personRepo repositories.PersonRepository
}

func NewRankingService(matchRepo repositories.MatchRepository, personRepo repositories.PersonRepository) RankingService {
	return &rankingService{
		matchRepo:  matchRepo,
		personRepo: personRepo,
	}
}

type rankingAccumulator struct {
	ranking   models.PlayerRanking
	opponents map[int]struct{}
}

// GetRankings строит таблицу "победы + Бухгольц" за один проход по
// завершённым матчам выбранного формата.
func (s *rankingService) GetRankings(ctx context.Context, format models.Format) ([]models.PlayerRanking, error) {
	var (
		persons []*models.Person
		matches []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		persons, err = s.personRepo.List(gCtx)
		if err != nil {
			return fmt.Errorf("failed to list persons: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListCompleted(gCtx, format)
		if err != nil {
			return fmt.Errorf("failed to list completed matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Все зарегистрированные игроки попадают в таблицу, даже без матчей.
	acc := make(map[int]*rankingAccumulator, len(persons))
	for _, p := range persons {
		acc[p.ID] = &rankingAccumulator{
			ranking:   models.PlayerRanking{ID: p.ID, Name: p.Name},
			opponents: make(map[int]struct{}),
		}
	}

	for _, m := range matches {
		if m.Team2 == nil || m.WinnerTeam == nil {
			continue
		}
		teams := [2]models.Team{m.Team1, *m.Team2}
		for ti, team := range teams {
			opposing := teams[1-ti]
			teamWon := *m.WinnerTeam == ti+1
			for _, playerID := range team.PlayerIDs() {
				a, ok := acc[playerID]
				if !ok {
					continue
				}
				a.ranking.TotalGames++
				if teamWon {
					a.ranking.Wins++
				}
				// Соперниками считается только противоположная команда.
				for _, oppID := range opposing.PlayerIDs() {
					a.opponents[oppID] = struct{}{}
				}
			}
		}
	}

	// Бухгольц: сумма побед всех встреченных соперников. Обход по persons
	// сохраняет детерминированный порядок при равенстве показателей.
	rankings := make([]models.PlayerRanking, 0, len(acc))
	for _, p := range persons {
		a := acc[p.ID]
		for oppID := range a.opponents {
			if opp, ok := acc[oppID]; ok {
				a.ranking.Buchholz += opp.ranking.Wins
			}
		}
		rankings = append(rankings, a.ranking)
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].Wins != rankings[j].Wins {
			return rankings[i].Wins > rankings[j].Wins
		}
		return rankings[i].Buchholz > rankings[j].Buchholz
	})
	return rankings, nil
}
