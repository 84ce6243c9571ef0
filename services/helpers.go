package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

// resolvePersonTeam загружает игроков из реестра и собирает команду.
func resolvePersonTeam(ctx context.Context, personRepo repositories.PersonRepository, player1ID int, player2ID *int) (models.Team, error) {
	p1, err := loadPerson(ctx, personRepo, player1ID)
	if err != nil {
		return models.Team{}, err
	}

	var p2 *models.Person
	if player2ID != nil {
		person, err := loadPerson(ctx, personRepo, *player2ID)
		if err != nil {
			return models.Team{}, err
		}
		p2 = person
	}
	return models.NewTeam(*p1, p2)
}

func loadPerson(ctx context.Context, personRepo repositories.PersonRepository, id int) (*models.Person, error) {
	person, err := personRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPersonNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to load person %d: %w", id, err)
	}
	return person, nil
}

// won сообщает, выиграл ли игрок завершённый матч.
func won(m *models.Match, playerID int) bool {
	if m.WinnerTeam == nil {
		return false
	}
	return m.TeamOf(playerID) == *m.WinnerTeam
}
