package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTeamPlayerMissing    = errors.New("team requires player1")
	ErrTeamDuplicatePlayer  = errors.New("team contains the same player twice")
	ErrMatchDuplicatePlayer = errors.New("match contains the same player on both sides")
	ErrMatchTeamSizeParity  = errors.New("teams must have the same number of players")
	ErrMatchInvalidWinner   = errors.New("winner_team must be 1 or 2")
	ErrMatchWinnerOnActive  = errors.New("active match cannot have a winner")
	ErrMatchRowInconsistent = errors.New("match row is inconsistent")
)

// Team - одна сторона матча: один или два игрока.
type Team struct {
	Player1 Person  `json:"player1"`
	Player2 *Person `json:"player2,omitempty"`
}

func NewTeam(player1 Person, player2 *Person) (Team, error) {
	if player1.ID == 0 {
		return Team{}, ErrTeamPlayerMissing
	}
	if player2 != nil && player2.ID == player1.ID {
		return Team{}, ErrTeamDuplicatePlayer
	}
	return Team{Player1: player1, Player2: player2}, nil
}

func (t Team) Size() int {
	if t.Player2 != nil {
		return 2
	}
	return 1
}

func (t Team) PlayerIDs() []int {
	ids := []int{t.Player1.ID}
	if t.Player2 != nil {
		ids = append(ids, t.Player2.ID)
	}
	return ids
}

func (t Team) Contains(playerID int) bool {
	if t.Player1.ID == playerID {
		return true
	}
	return t.Player2 != nil && t.Player2.ID == playerID
}

// DisplayName возвращает имя команды вида "Alice" или "Alice & Bob".
func (t Team) DisplayName() string {
	if t.Player2 != nil {
		return strings.Join([]string{t.Player1.Name, t.Player2.Name}, " & ")
	}
	return t.Player1.Name
}

// Match - одна запись стола. Активный матч без второй команды ждёт
// соперника, с двумя командами идёт игра.
type Match struct {
	ID         int        `json:"id"`
	Team1      Team       `json:"team1"`
	Team2      *Team      `json:"team2,omitempty"`
	WinnerTeam *int       `json:"winnerTeam,omitempty"`
	Winner     *Team      `json:"winner,omitempty"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	IsActive   bool       `json:"isActive"`
}

func (m *Match) IsSeekingOpponent() bool {
	return m.IsActive && m.Team2 == nil
}

func (m *Match) IsLive() bool {
	return m.IsActive && m.Team2 != nil
}

func (m *Match) IsDoubles() bool {
	if m.Team1.Size() == 2 {
		return true
	}
	return m.Team2 != nil && m.Team2.Size() == 2
}

func (m *Match) PlayerIDs() []int {
	ids := m.Team1.PlayerIDs()
	if m.Team2 != nil {
		ids = append(ids, m.Team2.PlayerIDs()...)
	}
	return ids
}

func (m *Match) ContainsPlayer(playerID int) bool {
	if m.Team1.Contains(playerID) {
		return true
	}
	return m.Team2 != nil && m.Team2.Contains(playerID)
}

// TeamOf возвращает 1 или 2 в зависимости от того, на какой стороне играет
// игрок, и 0, если он не участвует в матче.
func (m *Match) TeamOf(playerID int) int {
	if m.Team1.Contains(playerID) {
		return 1
	}
	if m.Team2 != nil && m.Team2.Contains(playerID) {
		return 2
	}
	return 0
}

// resolveWinner выставляет Winner по номеру победившей команды.
func (m *Match) resolveWinner() error {
	if m.WinnerTeam == nil {
		m.Winner = nil
		return nil
	}
	switch *m.WinnerTeam {
	case 1:
		m.Winner = &m.Team1
	case 2:
		if m.Team2 == nil {
			return ErrMatchRowInconsistent
		}
		m.Winner = m.Team2
	default:
		return ErrMatchInvalidWinner
	}
	return nil
}

// NewMatch валидирует и собирает матч из уже построенных команд.
// Хранилищу не доверяем: все инварианты проверяются здесь же.
func NewMatch(team1 Team, team2 *Team, winnerTeam *int, startTime time.Time, endTime *time.Time, isActive bool) (*Match, error) {
	if team1.Player1.ID == 0 {
		return nil, ErrTeamPlayerMissing
	}
	if team2 != nil {
		if team1.Size() != team2.Size() {
			return nil, ErrMatchTeamSizeParity
		}
		for _, id := range team1.PlayerIDs() {
			if team2.Contains(id) {
				return nil, ErrMatchDuplicatePlayer
			}
		}
	}
	if winnerTeam != nil && isActive {
		return nil, ErrMatchWinnerOnActive
	}
	m := &Match{
		Team1:      team1,
		Team2:      team2,
		WinnerTeam: winnerTeam,
		StartTime:  startTime,
		EndTime:    endTime,
		IsActive:   isActive,
	}
	if err := m.resolveWinner(); err != nil {
		return nil, err
	}
	return m, nil
}
