package models

import "fmt"

// Format определяет срез истории матчей для рейтингов.
type Format string

const (
	FormatSingles  Format = "singles"
	FormatDoubles  Format = "doubles"
	FormatCombined Format = "combined"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSingles, FormatDoubles, FormatCombined:
		return Format(s), nil
	case "":
		// Отсутствие параметра трактуем как общий рейтинг.
		return FormatCombined, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Matches сообщает, попадает ли завершённый матч в срез формата.
func (f Format) Matches(m *Match) bool {
	switch f {
	case FormatSingles:
		return !m.IsDoubles()
	case FormatDoubles:
		return m.Team1.Size() == 2 && m.Team2 != nil && m.Team2.Size() == 2
	default:
		return true
	}
}
