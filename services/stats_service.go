package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
	"golang.org/x/sync/errgroup"
)

const recentMatchesLimit = 10

type StatsService interface {
	GetPlayerStats(ctx context.Context, playerID int) (*models.PlayerStats, error)
}

type statsService struct {
	matchRepo  repositories.MatchRepository
	personRepo repositories.PersonRepository

	now func() time.Time
}

func NewStatsService(matchRepo repositories.MatchRepository, personRepo repositories.PersonRepository) StatsService {
	return &statsService{
		matchRepo:  matchRepo,
		personRepo: personRepo,
		now:        time.Now,
	}
}

// GetPlayerStats собирает досье игрока из одного чтения всей истории матчей.
func (s *statsService) GetPlayerStats(ctx context.Context, playerID int) (*models.PlayerStats, error) {
	var (
		person  *models.Person
		matches []*models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		person, err = loadPerson(gCtx, s.personRepo, playerID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListCompleted(gCtx, models.FormatCombined)
		if err != nil {
			return fmt.Errorf("failed to list completed matches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.PlayerStats{
		PlayerID:      playerID,
		PlayerName:    person.Name,
		WeeklyData:    []models.WeeklyRecord{},
		HeadToHead:    []models.HeadToHeadRecord{},
		RecentMatches: []models.PlayerMatchSummary{},
		AllMatches:    []models.PlayerMatchSummary{},
	}

	// Победы каждого игрока по всей истории - для Бухгольца.
	allWins := make(map[int]int)
	// Имена узнаём из самих матчей, отдельный справочник не нужен.
	names := make(map[int]string)

	type h2h struct {
		wins   int
		losses int
	}
	headToHead := make(map[int]*h2h)

	var playerMatches []*models.Match
	opponents := make(map[int]struct{})
	currentStreak := 0
	longestStreak := 0

	for _, m := range matches {
		if m.Team2 == nil || m.WinnerTeam == nil {
			continue
		}
		teams := [2]models.Team{m.Team1, *m.Team2}
		for ti, team := range teams {
			teamWon := *m.WinnerTeam == ti+1
			for i, id := range team.PlayerIDs() {
				if teamWon {
					allWins[id]++
				}
				if i == 0 {
					names[id] = team.Player1.Name
				} else if team.Player2 != nil {
					names[id] = team.Player2.Name
				}
			}
		}

		if !m.ContainsPlayer(playerID) {
			continue
		}
		playerMatches = append(playerMatches, m)

		playerWon := won(m, playerID)
		if playerWon {
			stats.TotalWins++
			currentStreak++
			if currentStreak > longestStreak {
				longestStreak = currentStreak
			}
		} else {
			stats.TotalLosses++
			currentStreak = 0
		}

		record := &stats.SinglesRecord
		if m.IsDoubles() {
			record = &stats.DoublesRecord
		}
		record.Total++
		if playerWon {
			record.Wins++
		} else {
			record.Losses++
		}

		opposing := teams[2-m.TeamOf(playerID)]
		for _, oppID := range opposing.PlayerIDs() {
			opponents[oppID] = struct{}{}
			rec, ok := headToHead[oppID]
			if !ok {
				rec = &h2h{}
				headToHead[oppID] = rec
			}
			if playerWon {
				rec.wins++
			} else {
				rec.losses++
			}
		}
	}

	stats.TotalMatches = len(playerMatches)
	if stats.TotalMatches > 0 {
		stats.WinPercentage = math.Round(float64(stats.TotalWins)/float64(stats.TotalMatches)*1000) / 10
	}
	stats.LongestWinStreak = longestStreak
	// Текущая серия - победы подряд, считая от самого свежего матча.
	stats.CurrentWinStreak = currentStreak

	for oppID := range opponents {
		stats.BuchholzRating += allWins[oppID]
	}

	for oppID, rec := range headToHead {
		stats.HeadToHead = append(stats.HeadToHead, models.HeadToHeadRecord{
			OpponentID:   oppID,
			OpponentName: names[oppID],
			Wins:         rec.wins,
			Losses:       rec.losses,
			TotalMatches: rec.wins + rec.losses,
		})
	}
	sort.SliceStable(stats.HeadToHead, func(i, j int) bool {
		if stats.HeadToHead[i].TotalMatches != stats.HeadToHead[j].TotalMatches {
			return stats.HeadToHead[i].TotalMatches > stats.HeadToHead[j].TotalMatches
		}
		return stats.HeadToHead[i].OpponentID < stats.HeadToHead[j].OpponentID
	})

	stats.WeeklyData = s.weeklyHistogram(playerMatches, playerID)

	// История - от свежих к старым; playerMatches идут хронологически.
	for i := len(playerMatches) - 1; i >= 0; i-- {
		stats.AllMatches = append(stats.AllMatches, matchSummary(playerMatches[i], playerID))
	}
	if len(stats.AllMatches) > recentMatchesLimit {
		stats.RecentMatches = stats.AllMatches[:recentMatchesLimit]
	} else {
		stats.RecentMatches = stats.AllMatches
	}

	return stats, nil
}

// weeklyHistogram раскладывает матчи текущего календарного года по
// ISO-неделям; все недели года заводятся заранее с нулями.
func (s *statsService) weeklyHistogram(playerMatches []*models.Match, playerID int) []models.WeeklyRecord {
	year := s.now().Year()

	index := make(map[string]int)
	var records []models.WeeklyRecord
	// ISO-неделя 28 декабря всегда последняя в году.
	_, weeks := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	for w := 1; w <= weeks; w++ {
		key := fmt.Sprintf("%d-W%02d", year, w)
		index[key] = len(records)
		records = append(records, models.WeeklyRecord{Week: key})
	}

	for _, m := range playerMatches {
		if m.StartTime.Year() != year {
			continue
		}
		key := weekKeyOf(m.StartTime)
		idx, ok := index[key]
		if !ok {
			// Границы года: ISO-неделя может принадлежать соседнему году.
			index[key] = len(records)
			records = append(records, models.WeeklyRecord{Week: key})
			idx = index[key]
		}
		records[idx].Total++
		if won(m, playerID) {
			records[idx].Wins++
		} else {
			records[idx].Losses++
		}
	}
	return records
}

func weekKeyOf(t time.Time) string {
	isoYear, isoWeek := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", isoYear, isoWeek)
}

func matchSummary(m *models.Match, playerID int) models.PlayerMatchSummary {
	summary := models.PlayerMatchSummary{
		MatchID:    m.ID,
		Team1:      m.Team1.DisplayName(),
		Won:        won(m, playerID),
		WinnerTeam: 0,
		StartTime:  m.StartTime,
		EndTime:    m.EndTime,
	}
	if m.Team2 != nil {
		summary.Team2 = m.Team2.DisplayName()
	}
	if m.WinnerTeam != nil {
		summary.WinnerTeam = *m.WinnerTeam
	}
	if m.EndTime != nil {
		minutes := int(math.Round(m.EndTime.Sub(m.StartTime).Minutes()))
		summary.DurationMinutes = &minutes
	}
	return summary
}
