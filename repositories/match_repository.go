package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match references an unknown person")
	ErrMatchTableBusy     = errors.New("another match is already active")
)

const matchSelect = `
	SELECT
		m.id, m.winner_team, m.start_time, m.end_time, m.is_active,
		m.team1_player1_id, p1.name,
		m.team1_player2_id, p2.name,
		m.team2_player1_id, p3.name,
		m.team2_player2_id, p4.name
	FROM matches m
	JOIN persons p1 ON m.team1_player1_id = p1.id
	LEFT JOIN persons p2 ON m.team1_player2_id = p2.id
	LEFT JOIN persons p3 ON m.team2_player1_id = p3.id
	LEFT JOIN persons p4 ON m.team2_player2_id = p4.id`

type MatchRepository interface {
	// Create вставляет новую запись матча и проставляет ID и StartTime.
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetCurrent возвращает первый активный матч или ErrMatchNotFound.
	GetCurrent(ctx context.Context) (*models.Match, error)
	// GetActiveForUpdate блокирует активную запись матча до конца транзакции.
	GetActiveForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// FindSeekingOpponentForUpdate блокирует активный матч без второй команды.
	FindSeekingOpponentForUpdate(ctx context.Context, exec SQLExecutor) (*models.Match, error)
	// ListActiveForUpdate блокирует все активные записи (их не больше одной).
	ListActiveForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Match, error)
	// ListCompleted возвращает завершённые матчи с победителем в срезе формата,
	// отсортированные по start_time (и id) по возрастанию.
	ListCompleted(ctx context.Context, format models.Format) ([]*models.Match, error)
	// ListAll возвращает все матчи, новые первыми.
	ListAll(ctx context.Context) ([]*models.Match, error)
	SetResult(ctx context.Context, exec SQLExecutor, id int, winnerTeam int, endTime time.Time) error
	SetCancelled(ctx context.Context, exec SQLExecutor, id int, endTime time.Time) error
	// SetTeam2 заполняет вторую команду ждущего матча и обновляет время старта.
	SetTeam2(ctx context.Context, exec SQLExecutor, id int, team models.Team, startTime time.Time) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

// scanMatch собирает модель из строки выборки matchSelect. Форму строки не
// доверяем базе: конструкторы моделей отбрасывают некорректные записи.
func scanMatch(scanner rowScanner) (*models.Match, error) {
	var (
		id         int
		winnerTeam sql.NullInt64
		startTime  time.Time
		endTime    sql.NullTime
		isActive   bool
		t1p1ID     int
		t1p1Name   string
		t1p2ID     sql.NullInt64
		t1p2Name   sql.NullString
		t2p1ID     sql.NullInt64
		t2p1Name   sql.NullString
		t2p2ID     sql.NullInt64
		t2p2Name   sql.NullString
	)

	err := scanner.Scan(
		&id, &winnerTeam, &startTime, &endTime, &isActive,
		&t1p1ID, &t1p1Name,
		&t1p2ID, &t1p2Name,
		&t2p1ID, &t2p1Name,
		&t2p2ID, &t2p2Name,
	)
	if err != nil {
		return nil, err
	}

	team1, err := models.NewTeam(
		models.Person{ID: t1p1ID, Name: t1p1Name},
		optionalPerson(t1p2ID, t1p2Name),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid team1 in match %d: %w", id, err)
	}

	var team2 *models.Team
	if t2p1ID.Valid {
		t2, err := models.NewTeam(
			models.Person{ID: int(t2p1ID.Int64), Name: t2p1Name.String},
			optionalPerson(t2p2ID, t2p2Name),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid team2 in match %d: %w", id, err)
		}
		team2 = &t2
	} else if t2p2ID.Valid {
		return nil, fmt.Errorf("match %d: %w", id, models.ErrMatchRowInconsistent)
	}

	var winner *int
	if winnerTeam.Valid {
		w := int(winnerTeam.Int64)
		winner = &w
	}
	var ended *time.Time
	if endTime.Valid {
		t := endTime.Time
		ended = &t
	}

	match, err := models.NewMatch(team1, team2, winner, startTime, ended, isActive)
	if err != nil {
		return nil, fmt.Errorf("invalid match row %d: %w", id, err)
	}
	match.ID = id
	return match, nil
}

func optionalPerson(id sql.NullInt64, name sql.NullString) *models.Person {
	if !id.Valid {
		return nil
	}
	return &models.Person{ID: int(id.Int64), Name: name.String}
}

func nullablePlayerID(team *models.Team) (p1, p2 interface{}) {
	if team == nil {
		return nil, nil
	}
	p1 = team.Player1.ID
	if team.Player2 != nil {
		p2 = team.Player2.ID
	}
	return p1, p2
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id, start_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, start_time`

	var t1p2 interface{}
	if match.Team1.Player2 != nil {
		t1p2 = match.Team1.Player2.ID
	}
	t2p1, t2p2 := nullablePlayerID(match.Team2)

	err := exec.QueryRowContext(ctx, query,
		match.Team1.Player1.ID, t1p2, t2p1, t2p2, match.StartTime, match.IsActive,
	).Scan(&match.ID, &match.StartTime)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := matchSelect + ` WHERE m.id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetCurrent(ctx context.Context) (*models.Match, error) {
	query := matchSelect + ` WHERE m.is_active ORDER BY m.start_time DESC LIMIT 1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan current match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetActiveForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := matchSelect + ` WHERE m.id = $1 AND m.is_active FOR UPDATE OF m`

	match, err := scanMatch(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan active match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) FindSeekingOpponentForUpdate(ctx context.Context, exec SQLExecutor) (*models.Match, error) {
	query := matchSelect + ` WHERE m.is_active AND m.team2_player1_id IS NULL FOR UPDATE OF m`

	match, err := scanMatch(exec.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan seeking-opponent match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListActiveForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Match, error) {
	query := matchSelect + ` WHERE m.is_active ORDER BY m.start_time FOR UPDATE OF m`
	return r.queryMatches(ctx, exec, query)
}

func (r *postgresMatchRepository) ListCompleted(ctx context.Context, format models.Format) ([]*models.Match, error) {
	query := matchSelect + ` WHERE m.winner_team IS NOT NULL AND NOT m.is_active`
	switch format {
	case models.FormatSingles:
		query += ` AND m.team1_player2_id IS NULL AND m.team2_player2_id IS NULL`
	case models.FormatDoubles:
		query += ` AND m.team1_player2_id IS NOT NULL AND m.team2_player2_id IS NOT NULL`
	}
	// Порядок значим: ELO пересчитывается хронологически.
	query += ` ORDER BY m.start_time ASC, m.id ASC`

	return r.queryMatches(ctx, r.db, query)
}

func (r *postgresMatchRepository) ListAll(ctx context.Context) ([]*models.Match, error) {
	query := matchSelect + ` ORDER BY m.start_time DESC, m.id DESC`
	return r.queryMatches(ctx, r.db, query)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetResult(ctx context.Context, exec SQLExecutor, id int, winnerTeam int, endTime time.Time) error {
	query := `
		UPDATE matches
		SET winner_team = $1, end_time = $2, is_active = FALSE
		WHERE id = $3 AND is_active`

	result, err := exec.ExecContext(ctx, query, winnerTeam, endTime, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetCancelled(ctx context.Context, exec SQLExecutor, id int, endTime time.Time) error {
	query := `
		UPDATE matches
		SET end_time = $1, is_active = FALSE
		WHERE id = $2 AND is_active`

	result, err := exec.ExecContext(ctx, query, endTime, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetTeam2(ctx context.Context, exec SQLExecutor, id int, team models.Team, startTime time.Time) error {
	query := `
		UPDATE matches
		SET team2_player1_id = $1, team2_player2_id = $2, start_time = $3
		WHERE id = $4 AND is_active AND team2_player1_id IS NULL`

	var p2 interface{}
	if team.Player2 != nil {
		p2 = team.Player2.ID
	}
	result, err := exec.ExecContext(ctx, query, team.Player1.ID, p2, startTime, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM matches WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_team1_player1_id_fkey", "matches_team1_player2_id_fkey",
			"matches_team2_player1_id_fkey", "matches_team2_player2_id_fkey":
			return ErrMatchPlayerInvalid
		case "matches_single_active_idx":
			return ErrMatchTableBusy
		}
	}
	return err
}
