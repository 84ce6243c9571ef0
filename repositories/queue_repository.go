package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/lib/pq"
)

var (
	ErrQueueEntryNotFound = errors.New("queue entry not found")
	ErrQueuePlayerInvalid = errors.New("queue entry references an unknown person")
)

const queueSelect = `
	SELECT
		q.id, q.created_at,
		q.team_player1_id, p1.name,
		q.team_player2_id, p2.name
	FROM queue q
	JOIN persons p1 ON q.team_player1_id = p1.id
	LEFT JOIN persons p2 ON q.team_player2_id = p2.id`

type QueueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) error
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.QueueEntry, error)
	// List возвращает всю очередь в порядке FIFO.
	List(ctx context.Context) ([]*models.QueueEntry, error)
	// ListForUpdate сериализует конкурентные вставки advisory-блокировкой
	// на всю очередь и возвращает её в порядке FIFO в рамках транзакции.
	ListForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.QueueEntry, error)
	// ListHeadForUpdate блокирует и возвращает до limit первых записей очереди.
	ListHeadForUpdate(ctx context.Context, exec SQLExecutor, limit int) ([]*models.QueueEntry, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresQueueRepository struct {
	db *sql.DB
}

func NewPostgresQueueRepository(db *sql.DB) QueueRepository {
	return &postgresQueueRepository{db: db}
}

func scanQueueEntry(scanner rowScanner) (*models.QueueEntry, error) {
	var (
		entry  models.QueueEntry
		p1ID   int
		p1Name string
		p2ID   sql.NullInt64
		p2Name sql.NullString
	)

	if err := scanner.Scan(&entry.ID, &entry.CreatedAt, &p1ID, &p1Name, &p2ID, &p2Name); err != nil {
		return nil, err
	}

	team, err := models.NewTeam(models.Person{ID: p1ID, Name: p1Name}, optionalPerson(p2ID, p2Name))
	if err != nil {
		return nil, fmt.Errorf("invalid team in queue entry %d: %w", entry.ID, err)
	}
	entry.Team = team
	return &entry, nil
}

func (r *postgresQueueRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue (team_player1_id, team_player2_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	var p2 interface{}
	if entry.Team.Player2 != nil {
		p2 = entry.Team.Player2.ID
	}

	err := exec.QueryRowContext(ctx, query, entry.Team.Player1.ID, p2).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "queue_team_player1_id_fkey", "queue_team_player2_id_fkey":
				return ErrQueuePlayerInvalid
			}
		}
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

func (r *postgresQueueRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.QueueEntry, error) {
	query := queueSelect + ` WHERE q.id = $1 FOR UPDATE OF q`

	entry, err := scanQueueEntry(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan queue entry %d: %w", id, err)
	}
	return entry, nil
}

func (r *postgresQueueRepository) List(ctx context.Context) ([]*models.QueueEntry, error) {
	query := queueSelect + ` ORDER BY q.created_at ASC, q.id ASC`
	return r.queryEntries(ctx, r.db, query)
}

// Ключ advisory-блокировки очереди. FOR UPDATE не защищает от двух
// одновременных вставок в пустую очередь, поэтому вставки сериализуются
// транзакционной advisory-блокировкой целиком.
const queueAdvisoryLockID = 815042

func (r *postgresQueueRepository) ListForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.QueueEntry, error) {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, queueAdvisoryLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire queue lock: %w", err)
	}
	query := queueSelect + ` ORDER BY q.created_at ASC, q.id ASC FOR UPDATE OF q`
	return r.queryEntries(ctx, exec, query)
}

func (r *postgresQueueRepository) ListHeadForUpdate(ctx context.Context, exec SQLExecutor, limit int) ([]*models.QueueEntry, error) {
	query := queueSelect + ` ORDER BY q.created_at ASC, q.id ASC LIMIT ` + strconv.Itoa(limit) + ` FOR UPDATE OF q`
	return r.queryEntries(ctx, exec, query)
}

func (r *postgresQueueRepository) queryEntries(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.QueueEntry, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.QueueEntry, 0)
	for rows.Next() {
		entry, scanErr := scanQueueEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", scanErr)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during queue rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresQueueRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM queue WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrQueueEntryNotFound)
}
