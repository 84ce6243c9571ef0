package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/table-match-manager/models"
)

type matchServiceFixture struct {
	svc        MatchService
	matchRepo  *fakeMatchRepo
	queueRepo  *fakeQueueRepo
	personRepo *fakePersonRepo
	notifier   *fakeNotifier
}

func newMatchServiceFixture() *matchServiceFixture {
	f := &matchServiceFixture{
		matchRepo:  newFakeMatchRepo(),
		queueRepo:  newFakeQueueRepo(),
		personRepo: newFakePersonRepo(),
		notifier:   &fakeNotifier{},
	}
	f.svc = NewMatchService(fakeTxManager{}, f.matchRepo, f.queueRepo, f.personRepo, f.notifier, testLogger())
	return f
}

func TestStartMatchCreatesLiveMatch(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if !match.IsLive() {
		t.Error("expected started match to be live")
	}
	if match.IsDoubles() {
		t.Error("expected singles match")
	}
	if !f.notifier.has(EventMatchUpdated) {
		t.Error("expected MATCH_UPDATED notification")
	}
}

func TestStartMatchValidation(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")

	tests := []struct {
		name    string
		input   StartMatchInput
		wantErr error
	}{
		{
			name:    "missing player",
			input:   StartMatchInput{Team1Player1ID: alice.ID},
			wantErr: ErrPlayerRequired,
		},
		{
			name:    "duplicate player across teams",
			input:   StartMatchInput{Team1Player1ID: alice.ID, Team2Player1ID: alice.ID},
			wantErr: ErrDuplicatePlayers,
		},
		{
			name: "team size mismatch",
			input: StartMatchInput{
				Team1Player1ID: alice.ID,
				Team1Player2ID: &bob.ID,
				Team2Player1ID: carol.ID,
			},
			wantErr: ErrTeamSizeMismatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.StartMatch(context.Background(), tc.input); !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestStartMatchUnknownPerson(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")

	_, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: 99,
	})
	if !errors.Is(err, ErrPersonNotFound) {
		t.Fatalf("got %v, want ErrPersonNotFound", err)
	}
}

func TestStartMatchTableOccupied(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")
	dave := f.personRepo.add("Dave")

	if _, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	}); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	// Участник активного матча - более точная ошибка.
	_, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: carol.ID,
	})
	if !errors.Is(err, ErrPlayerAlreadyPlaying) {
		t.Errorf("got %v, want ErrPlayerAlreadyPlaying", err)
	}

	// Стол один: посторонним игрокам тоже отказ.
	_, err = f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: carol.ID,
		Team2Player1ID: dave.ID,
	})
	if !errors.Is(err, ErrTableOccupied) {
		t.Errorf("got %v, want ErrTableOccupied", err)
	}
}

func TestEndMatchWinnerStaysOn(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	result, err := f.svc.EndMatch(context.Background(), match.ID, 2)
	if err != nil {
		t.Fatalf("EndMatch: %v", err)
	}

	if result.EndedMatch.IsActive {
		t.Error("ended match must not be active")
	}
	if result.EndedMatch.WinnerTeam == nil || *result.EndedMatch.WinnerTeam != 2 {
		t.Error("expected winner team 2")
	}
	if result.EndedMatch.Winner == nil || !result.EndedMatch.Winner.Contains(bob.ID) {
		t.Error("expected Bob to be the winner")
	}

	// Победитель остаётся за столом и ждёт соперника.
	next := result.NextMatch
	if next == nil {
		t.Fatal("expected next match")
	}
	if !next.IsSeekingOpponent() {
		t.Error("expected next match to seek an opponent")
	}
	if !next.Team1.Contains(bob.ID) {
		t.Error("expected winner to hold the table")
	}
}

func TestEndMatchRejectsSeekingOpponent(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")

	waiting := &models.Match{Team1: singles(*alice), StartTime: time.Now(), IsActive: true}
	if err := f.matchRepo.Create(context.Background(), nil, waiting); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.EndMatch(context.Background(), waiting.ID, 1); !errors.Is(err, ErrActiveMatchNotFound) {
		t.Fatalf("got %v, want ErrActiveMatchNotFound", err)
	}
}

func TestEndMatchInvalidWinner(t *testing.T) {
	f := newMatchServiceFixture()
	if _, err := f.svc.EndMatch(context.Background(), 1, 3); !errors.Is(err, ErrInvalidWinnerTeam) {
		t.Fatalf("got %v, want ErrInvalidWinnerTeam", err)
	}
}

func TestForfeitPicksOppositeWinner(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	result, err := f.svc.ForfeitMatch(context.Background(), match.ID, 1)
	if err != nil {
		t.Fatalf("ForfeitMatch: %v", err)
	}
	if result.EndedMatch.WinnerTeam == nil || *result.EndedMatch.WinnerTeam != 2 {
		t.Error("forfeit of team 1 must award team 2")
	}

	if _, err := f.svc.ForfeitMatch(context.Background(), match.ID, 3); !errors.Is(err, ErrInvalidForfeitTeam) {
		t.Errorf("got %v, want ErrInvalidForfeitTeam", err)
	}
}

func TestCancelMatchProgressesQueuePair(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")
	dave := f.personRepo.add("Dave")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	for _, p := range []*models.Person{carol, dave} {
		entry := &models.QueueEntry{Team: singles(*p)}
		if err := f.queueRepo.Create(context.Background(), nil, entry); err != nil {
			t.Fatal(err)
		}
	}

	result, err := f.svc.CancelMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}

	if result.ProgressionInfo == nil || result.ProgressionInfo.Type != "queue_vs_queue" {
		t.Fatalf("expected queue_vs_queue progression, got %+v", result.ProgressionInfo)
	}
	if result.NextMatch == nil || !result.NextMatch.IsLive() {
		t.Fatal("expected a live next match from the queue")
	}
	if !result.NextMatch.Team1.Contains(carol.ID) || !result.NextMatch.Team2.Contains(dave.ID) {
		t.Error("expected the two queue heads to face each other")
	}
	if entries, _ := f.queueRepo.List(context.Background()); len(entries) != 0 {
		t.Errorf("expected empty queue, got %d entries", len(entries))
	}
}

func TestCancelMatchSingleQueueEntry(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	entry := &models.QueueEntry{Team: singles(*carol)}
	if err := f.queueRepo.Create(context.Background(), nil, entry); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.CancelMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}

	if result.NextMatch != nil {
		t.Error("single queue entry must not start a match on its own")
	}
	if result.ProgressionInfo == nil || result.ProgressionInfo.Type != "queue_to_selection" {
		t.Fatalf("expected queue_to_selection progression, got %+v", result.ProgressionInfo)
	}
	if result.ProgressionInfo.AvailableTeam == nil || !result.ProgressionInfo.AvailableTeam.Contains(carol.ID) {
		t.Error("expected Carol's team to be offered for selection")
	}
}

func TestCancelMatchMismatchedQueueHeads(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")
	dave := f.personRepo.add("Dave")
	erin := f.personRepo.add("Erin")

	// Пара встала в очередь раньше одиночного матча, одиночка позже него:
	// головы очереди несовместимы, отмена всё равно должна пройти.
	pair := &models.QueueEntry{Team: doubles(*carol, *dave)}
	if err := f.queueRepo.Create(context.Background(), nil, pair); err != nil {
		t.Fatal(err)
	}

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	single := &models.QueueEntry{Team: singles(*erin)}
	if err := f.queueRepo.Create(context.Background(), nil, single); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.CancelMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}

	if result.NextMatch != nil {
		t.Error("mismatched queue heads must not start a match")
	}
	if result.ProgressionInfo == nil || result.ProgressionInfo.Type != "queue_to_selection" {
		t.Fatalf("expected queue_to_selection progression, got %+v", result.ProgressionInfo)
	}
	if result.ProgressionInfo.AvailableTeam == nil || !result.ProgressionInfo.AvailableTeam.Contains(carol.ID) {
		t.Error("expected the pair at the head of the queue to be offered for selection")
	}
	if cancelled, _ := f.matchRepo.GetByID(context.Background(), match.ID); cancelled.IsActive {
		t.Error("expected the match to be cancelled")
	}
	entries, _ := f.queueRepo.List(context.Background())
	if len(entries) != 1 || !entries[0].Team.Contains(erin.ID) {
		t.Errorf("expected only Erin's entry to remain queued, got %+v", entries)
	}
}

func TestCancelMatchEmptyQueue(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")

	match, err := f.svc.StartMatch(context.Background(), StartMatchInput{
		Team1Player1ID: alice.ID,
		Team2Player1ID: bob.ID,
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}

	result, err := f.svc.CancelMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("CancelMatch: %v", err)
	}
	if result.NextMatch != nil || result.ProgressionInfo != nil {
		t.Error("empty queue must not progress anything")
	}

	current, err := f.svc.CurrentMatch(context.Background())
	if err != nil {
		t.Fatalf("CurrentMatch: %v", err)
	}
	if current != nil {
		t.Error("expected an empty table after cancellation")
	}
}

func TestCancelMatchNotFound(t *testing.T) {
	f := newMatchServiceFixture()
	if _, err := f.svc.CancelMatch(context.Background(), 42); !errors.Is(err, ErrActiveMatchNotFound) {
		t.Fatalf("got %v, want ErrActiveMatchNotFound", err)
	}
}

func TestStartMatchFromQueue(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")

	waiting := &models.Match{Team1: singles(*alice), StartTime: time.Now(), IsActive: true}
	if err := f.matchRepo.Create(context.Background(), nil, waiting); err != nil {
		t.Fatal(err)
	}
	entry := &models.QueueEntry{Team: singles(*bob)}
	if err := f.queueRepo.Create(context.Background(), nil, entry); err != nil {
		t.Fatal(err)
	}

	match, err := f.svc.StartMatchFromQueue(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("StartMatchFromQueue: %v", err)
	}
	if !match.IsLive() {
		t.Error("expected the waiting match to become live")
	}
	if match.Team2 == nil || !match.Team2.Contains(bob.ID) {
		t.Error("expected Bob to join as team 2")
	}
	if entries, _ := f.queueRepo.List(context.Background()); len(entries) != 0 {
		t.Error("expected the consumed entry to leave the queue")
	}
}

func TestStartMatchFromQueueSizeMismatch(t *testing.T) {
	f := newMatchServiceFixture()
	alice := f.personRepo.add("Alice")
	bob := f.personRepo.add("Bob")
	carol := f.personRepo.add("Carol")
	dave := f.personRepo.add("Dave")
	erin := f.personRepo.add("Erin")

	// Пара встала в очередь при пустом столе, ждущий матч одиночный.
	waiting := &models.Match{Team1: singles(*alice), StartTime: time.Now(), IsActive: true}
	if err := f.matchRepo.Create(context.Background(), nil, waiting); err != nil {
		t.Fatal(err)
	}
	pair := &models.QueueEntry{Team: doubles(*bob, *carol)}
	if err := f.queueRepo.Create(context.Background(), nil, pair); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartMatchFromQueue(context.Background(), pair.ID); !errors.Is(err, ErrQueueNeedsOnePlayer) {
		t.Fatalf("got %v, want ErrQueueNeedsOnePlayer", err)
	}
	if entries, _ := f.queueRepo.List(context.Background()); len(entries) != 1 {
		t.Error("expected the rejected entry to stay in the queue")
	}
	if current, _ := f.matchRepo.GetCurrent(context.Background()); !current.IsSeekingOpponent() {
		t.Error("expected the waiting match to stay untouched")
	}

	// Обратная ситуация: ждёт пара, в очереди одиночка.
	f = newMatchServiceFixture()
	waiting = &models.Match{Team1: doubles(*alice, *dave), StartTime: time.Now(), IsActive: true}
	if err := f.matchRepo.Create(context.Background(), nil, waiting); err != nil {
		t.Fatal(err)
	}
	single := &models.QueueEntry{Team: singles(*erin)}
	if err := f.queueRepo.Create(context.Background(), nil, single); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartMatchFromQueue(context.Background(), single.ID); !errors.Is(err, ErrQueueNeedsTwoPlayers) {
		t.Fatalf("got %v, want ErrQueueNeedsTwoPlayers", err)
	}
}

func TestStartMatchFromQueueNoSeekingMatch(t *testing.T) {
	f := newMatchServiceFixture()
	bob := f.personRepo.add("Bob")

	entry := &models.QueueEntry{Team: singles(*bob)}
	if err := f.queueRepo.Create(context.Background(), nil, entry); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.StartMatchFromQueue(context.Background(), entry.ID); !errors.Is(err, ErrNoSeekingOpponent) {
		t.Fatalf("got %v, want ErrNoSeekingOpponent", err)
	}

	if _, err := f.svc.StartMatchFromQueue(context.Background(), 99); !errors.Is(err, ErrQueueEntryNotFound) {
		t.Fatalf("got %v, want ErrQueueEntryNotFound", err)
	}
}
