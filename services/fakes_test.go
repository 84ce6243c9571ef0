package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
)

// Фейки работают в памяти; транзакция сводится к вызову fn без executor-а.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakePersonRepo struct {
	persons map[int]*models.Person
	nextID  int
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[int]*models.Person), nextID: 1}
}

func (r *fakePersonRepo) Create(ctx context.Context, person *models.Person) error {
	person.ID = r.nextID
	person.CreatedAt = time.Now()
	r.nextID++
	stored := *person
	r.persons[person.ID] = &stored
	return nil
}

func (r *fakePersonRepo) GetByID(ctx context.Context, id int) (*models.Person, error) {
	person, ok := r.persons[id]
	if !ok {
		return nil, repositories.ErrPersonNotFound
	}
	copied := *person
	return &copied, nil
}

func (r *fakePersonRepo) List(ctx context.Context) ([]*models.Person, error) {
	result := make([]*models.Person, 0, len(r.persons))
	for _, p := range r.persons {
		copied := *p
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakePersonRepo) UpdateAvatarKey(ctx context.Context, id int, key *string) error {
	person, ok := r.persons[id]
	if !ok {
		return repositories.ErrPersonNotFound
	}
	person.AvatarKey = key
	return nil
}

func (r *fakePersonRepo) add(name string) *models.Person {
	p := &models.Person{Name: name}
	_ = r.Create(context.Background(), p)
	return p
}

type fakeMatchRepo struct {
	matches []*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.nextID
	r.nextID++
	r.matches = append(r.matches, match)
	return nil
}

func (r *fakeMatchRepo) find(id int) (*models.Match, error) {
	for _, m := range r.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return r.find(id)
}

func (r *fakeMatchRepo) GetCurrent(ctx context.Context) (*models.Match, error) {
	for _, m := range r.matches {
		if m.IsActive {
			return m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) GetActiveForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	match, err := r.find(id)
	if err != nil {
		return nil, err
	}
	if !match.IsActive {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (r *fakeMatchRepo) FindSeekingOpponentForUpdate(ctx context.Context, exec repositories.SQLExecutor) (*models.Match, error) {
	for _, m := range r.matches {
		if m.IsActive && m.Team2 == nil {
			return m, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListActiveForUpdate(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Match, error) {
	var active []*models.Match
	for _, m := range r.matches {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active, nil
}

func (r *fakeMatchRepo) ListCompleted(ctx context.Context, format models.Format) ([]*models.Match, error) {
	var completed []*models.Match
	for _, m := range r.matches {
		if m.IsActive || m.WinnerTeam == nil || m.Team2 == nil {
			continue
		}
		if !format.Matches(m) {
			continue
		}
		completed = append(completed, m)
	}
	sort.SliceStable(completed, func(i, j int) bool {
		if !completed[i].StartTime.Equal(completed[j].StartTime) {
			return completed[i].StartTime.Before(completed[j].StartTime)
		}
		return completed[i].ID < completed[j].ID
	})
	return completed, nil
}

func (r *fakeMatchRepo) ListAll(ctx context.Context) ([]*models.Match, error) {
	result := make([]*models.Match, len(r.matches))
	copy(result, r.matches)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *fakeMatchRepo) SetResult(ctx context.Context, exec repositories.SQLExecutor, id int, winnerTeam int, endTime time.Time) error {
	match, err := r.find(id)
	if err != nil {
		return err
	}
	match.WinnerTeam = &winnerTeam
	match.EndTime = &endTime
	match.IsActive = false
	return nil
}

func (r *fakeMatchRepo) SetCancelled(ctx context.Context, exec repositories.SQLExecutor, id int, endTime time.Time) error {
	match, err := r.find(id)
	if err != nil {
		return err
	}
	match.EndTime = &endTime
	match.IsActive = false
	return nil
}

func (r *fakeMatchRepo) SetTeam2(ctx context.Context, exec repositories.SQLExecutor, id int, team models.Team, startTime time.Time) error {
	match, err := r.find(id)
	if err != nil {
		return err
	}
	copied := team
	match.Team2 = &copied
	match.StartTime = startTime
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int) error {
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

type fakeQueueRepo struct {
	entries []*models.QueueEntry
	nextID  int

	listForUpdateCalls int
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{nextID: 1}
}

func (r *fakeQueueRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.QueueEntry) error {
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.nextID++
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeQueueRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.QueueEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, repositories.ErrQueueEntryNotFound
}

func (r *fakeQueueRepo) List(ctx context.Context) ([]*models.QueueEntry, error) {
	result := make([]*models.QueueEntry, len(r.entries))
	copy(result, r.entries)
	return result, nil
}

func (r *fakeQueueRepo) ListForUpdate(ctx context.Context, exec repositories.SQLExecutor) ([]*models.QueueEntry, error) {
	r.listForUpdateCalls++
	return r.List(ctx)
}

func (r *fakeQueueRepo) ListHeadForUpdate(ctx context.Context, exec repositories.SQLExecutor, limit int) ([]*models.QueueEntry, error) {
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	result := make([]*models.QueueEntry, limit)
	copy(result, r.entries[:limit])
	return result, nil
}

func (r *fakeQueueRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrQueueEntryNotFound
}

type notifiedEvent struct {
	eventType string
	payload   interface{}
}

type fakeNotifier struct {
	events []notifiedEvent
}

func (n *fakeNotifier) NotifyTable(eventType string, payload interface{}) {
	n.events = append(n.events, notifiedEvent{eventType: eventType, payload: payload})
}

func (n *fakeNotifier) has(eventType string) bool {
	for _, e := range n.events {
		if e.eventType == eventType {
			return true
		}
	}
	return false
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singles(p models.Person) models.Team {
	return models.Team{Player1: p}
}

func doubles(p1, p2 models.Person) models.Team {
	return models.Team{Player1: p1, Player2: &p2}
}

// completedMatch добавляет в репозиторий завершённый матч с победителем.
func completedMatch(repo *fakeMatchRepo, team1, team2 models.Team, winnerTeam int, start time.Time) *models.Match {
	end := start.Add(20 * time.Minute)
	t2 := team2
	match := &models.Match{
		Team1:      team1,
		Team2:      &t2,
		WinnerTeam: &winnerTeam,
		StartTime:  start,
		EndTime:    &end,
	}
	_ = repo.Create(context.Background(), nil, match)
	return match
}
