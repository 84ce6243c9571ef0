package models

import "time"

// PlayerRanking - строка таблицы "победы + Бухгольц".
type PlayerRanking struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	TotalGames int    `json:"totalGames"`
	Buchholz   int    `json:"buchholz"`
}

// EloRanking - строка ELO-таблицы после хронологического пересчёта.
type EloRanking struct {
	PlayerID           int     `json:"playerId"`
	PlayerName         string  `json:"playerName"`
	Elo                int     `json:"elo"`
	GamesPlayed        int     `json:"gamesPlayed"`
	Mu                 float64 `json:"mu"`
	Sigma              float64 `json:"sigma"`
	ConservativeRating float64 `json:"conservativeRating"`
}

type WinLossRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Total  int `json:"total"`
}

type WeeklyRecord struct {
	Week   string `json:"week"` // формат "2025-W07", нумерация недель по ISO-8601
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Total  int    `json:"total"`
}

type HeadToHeadRecord struct {
	OpponentID   int    `json:"opponentId"`
	OpponentName string `json:"opponentName"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	TotalMatches int    `json:"totalMatches"`
}

// PlayerMatchSummary - завершённый матч глазами одного игрока.
type PlayerMatchSummary struct {
	MatchID         int        `json:"matchId"`
	Team1           string     `json:"team1"`
	Team2           string     `json:"team2"`
	Won             bool       `json:"won"`
	WinnerTeam      int        `json:"winnerTeam"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
}

// PlayerStats - досье игрока для страницы деталей.
type PlayerStats struct {
	PlayerID         int                  `json:"playerId"`
	PlayerName       string               `json:"playerName"`
	TotalMatches     int                  `json:"totalMatches"`
	TotalWins        int                  `json:"totalWins"`
	TotalLosses      int                  `json:"totalLosses"`
	WinPercentage    float64              `json:"winPercentage"`
	SinglesRecord    WinLossRecord        `json:"singlesRecord"`
	DoublesRecord    WinLossRecord        `json:"doublesRecord"`
	WeeklyData       []WeeklyRecord       `json:"weeklyData"`
	LongestWinStreak int                  `json:"longestWinStreak"`
	CurrentWinStreak int                  `json:"currentWinStreak"`
	BuchholzRating   int                  `json:"buchholzRating"`
	HeadToHead       []HeadToHeadRecord   `json:"headToHead"`
	RecentMatches    []PlayerMatchSummary `json:"recentMatches"`
	AllMatches       []PlayerMatchSummary `json:"allMatches"`
}

// AdminMatch - плоское представление матча для административного списка.
type AdminMatch struct {
	ID        int        `json:"id"`
	Team1     string     `json:"team1"`
	Team2     string     `json:"team2"`
	Winner    *string    `json:"winner"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	IsActive  bool       `json:"isActive"`
}
