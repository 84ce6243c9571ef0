package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

const (
	eloInitialRating = 1500.0
	eloKFactor       = 32.0
)

type EloService interface {
	GetEloRankings(ctx context.Context, format models.Format) ([]models.EloRanking, error)
}

type eloService struct {
	matchRepo  repositories.MatchRepository
	personRepo repositories.PersonRepository
}

func NewEloService(matchRepo repositories.MatchRepository, personRepo repositories.PersonRepository) EloService {
	return &eloService{
		matchRepo:  matchRepo,
		personRepo: personRepo,
	}
}

type eloState struct {
	rating      float64
	gamesPlayed int
}

// GetEloRankings хронологически пересчитывает ELO по завершённым матчам.
// Комбинированный срез не поддерживается: одиночные и парные рейтинги
// считаются раздельно.
func (s *eloService) GetEloRankings(ctx context.Context, format models.Format) ([]models.EloRanking, error) {
	if format != models.FormatSingles && format != models.FormatDoubles {
		return nil, ErrEloFormatRequired
	}

	matches, err := s.matchRepo.ListCompleted(ctx, format)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed matches: %w", err)
	}
	persons, err := s.personRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}

	states := make(map[int]*eloState)
	stateOf := func(playerID int) *eloState {
		st, ok := states[playerID]
		if !ok {
			st = &eloState{rating: eloInitialRating}
			states[playerID] = st
		}
		return st
	}

	for _, m := range matches {
		if m.Team2 == nil || m.WinnerTeam == nil {
			continue
		}

		team1Rating := teamRating(stateOf, m.Team1)
		team2Rating := teamRating(stateOf, *m.Team2)

		expected1 := 1.0 / (1.0 + math.Pow(10, (team2Rating-team1Rating)/400.0))
		actual1 := 0.0
		if *m.WinnerTeam == 1 {
			actual1 = 1.0
		}

		// Дельта команды применяется каждому её игроку целиком.
		delta1 := math.Round(eloKFactor * (actual1 - expected1))
		for _, playerID := range m.Team1.PlayerIDs() {
			st := stateOf(playerID)
			st.rating += delta1
			st.gamesPlayed++
		}
		for _, playerID := range m.Team2.PlayerIDs() {
			st := stateOf(playerID)
			st.rating -= delta1
			st.gamesPlayed++
		}
	}

	rankings := make([]models.EloRanking, 0, len(states))
	for _, p := range persons {
		st, ok := states[p.ID]
		if !ok || st.gamesPlayed == 0 {
			continue
		}
		elo := int(math.Round(st.rating))
		mu := float64(elo) / 100.0
		sigma := math.Max(1.0, 8.33-0.5*float64(st.gamesPlayed))
		rankings = append(rankings, models.EloRanking{
			PlayerID:           p.ID,
			PlayerName:         p.Name,
			Elo:                elo,
			GamesPlayed:        st.gamesPlayed,
			Mu:                 mu,
			Sigma:              sigma,
			ConservativeRating: mu - 2*sigma,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Elo > rankings[j].Elo
	})
	return rankings, nil
}

// teamRating - средний рейтинг игроков команды.
func teamRating(stateOf func(int) *eloState, team models.Team) float64 {
	ids := team.PlayerIDs()
	sum := 0.0
	for _, id := range ids {
		sum += stateOf(id).rating
	}
	return sum / float64(len(ids))
}
