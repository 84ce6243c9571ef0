package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/table-match-manager/models"
)

var ErrPersonNotFound = errors.New("person not found")

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id int) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	UpdateAvatarKey(ctx context.Context, id int, key *string) error
}

type postgresPersonRepository struct {
	db *sql.DB
}

func NewPostgresPersonRepository(db *sql.DB) PersonRepository {
	return &postgresPersonRepository{db: db}
}

func (r *postgresPersonRepository) Create(ctx context.Context, person *models.Person) error {
	query := `INSERT INTO persons (name) VALUES ($1) RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, person.Name).Scan(&person.ID, &person.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

func (r *postgresPersonRepository) GetByID(ctx context.Context, id int) (*models.Person, error) {
	query := `SELECT id, name, avatar_key, created_at FROM persons WHERE id = $1`

	person := &models.Person{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&person.ID, &person.Name, &person.AvatarKey, &person.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to scan person by id %d: %w", id, err)
	}
	return person, nil
}

func (r *postgresPersonRepository) List(ctx context.Context) ([]*models.Person, error) {
	query := `SELECT id, name, avatar_key, created_at FROM persons ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	persons := make([]*models.Person, 0)
	for rows.Next() {
		person := &models.Person{}
		if scanErr := rows.Scan(&person.ID, &person.Name, &person.AvatarKey, &person.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan person row: %w", scanErr)
		}
		persons = append(persons, person)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during person rows iteration: %w", err)
	}
	return persons, nil
}

func (r *postgresPersonRepository) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE persons SET avatar_key = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar key for person %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPersonNotFound)
}
