package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Dosada05/table-match-manager/models"
)

func TestEloRequiresSinglesOrDoubles(t *testing.T) {
	svc := NewEloService(newFakeMatchRepo(), newFakePersonRepo())

	if _, err := svc.GetEloRankings(context.Background(), models.FormatCombined); !errors.Is(err, ErrEloFormatRequired) {
		t.Fatalf("got %v, want ErrEloFormatRequired", err)
	}
}

func TestEloSingleMatch(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	personRepo := newFakePersonRepo()
	svc := NewEloService(matchRepo, personRepo)

	alice := personRepo.add("Alice")
	bob := personRepo.add("Bob")
	personRepo.add("Carol") // без матчей, в таблицу не попадает

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	completedMatch(matchRepo, singles(*alice), singles(*bob), 1, base)

	rankings, err := svc.GetEloRankings(context.Background(), models.FormatSingles)
	if err != nil {
		t.Fatalf("GetEloRankings: %v", err)
	}
	if len(rankings) != 2 {
		t.Fatalf("expected 2 rated players, got %d", len(rankings))
	}

	// Равные рейтинги, K=32: победителю +16, проигравшему -16.
	if rankings[0].PlayerID != alice.ID || rankings[0].Elo != 1516 {
		t.Errorf("unexpected winner row: %+v", rankings[0])
	}
	if rankings[1].PlayerID != bob.ID || rankings[1].Elo != 1484 {
		t.Errorf("unexpected loser row: %+v", rankings[1])
	}
	if rankings[0].GamesPlayed != 1 {
		t.Errorf("expected 1 game played, got %d", rankings[0].GamesPlayed)
	}

	wantMu := 15.16
	wantSigma := 8.33 - 0.5
	if math.Abs(rankings[0].Mu-wantMu) > 1e-9 {
		t.Errorf("mu = %v, want %v", rankings[0].Mu, wantMu)
	}
	if math.Abs(rankings[0].Sigma-wantSigma) > 1e-9 {
		t.Errorf("sigma = %v, want %v", rankings[0].Sigma, wantSigma)
	}
	if math.Abs(rankings[0].ConservativeRating-(wantMu-2*wantSigma)) > 1e-9 {
		t.Errorf("conservative = %v, want %v", rankings[0].ConservativeRating, wantMu-2*wantSigma)
	}
}

func TestEloDoublesSharesTeamDelta(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	personRepo := newFakePersonRepo()
	svc := NewEloService(matchRepo, personRepo)

	alice := personRepo.add("Alice")
	bob := personRepo.add("Bob")
	carol := personRepo.add("Carol")
	dave := personRepo.add("Dave")

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	completedMatch(matchRepo, doubles(*alice, *bob), doubles(*carol, *dave), 1, base)

	rankings, err := svc.GetEloRankings(context.Background(), models.FormatDoubles)
	if err != nil {
		t.Fatalf("GetEloRankings: %v", err)
	}

	rows := make(map[int]models.EloRanking, len(rankings))
	for _, r := range rankings {
		rows[r.PlayerID] = r
	}
	for _, winner := range []int{alice.ID, bob.ID} {
		if rows[winner].Elo != 1516 {
			t.Errorf("winner %d elo = %d, want 1516", winner, rows[winner].Elo)
		}
	}
	for _, loser := range []int{carol.ID, dave.ID} {
		if rows[loser].Elo != 1484 {
			t.Errorf("loser %d elo = %d, want 1484", loser, rows[loser].Elo)
		}
	}
}

func TestEloReplaysChronologically(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	personRepo := newFakePersonRepo()
	svc := NewEloService(matchRepo, personRepo)

	alice := personRepo.add("Alice")
	bob := personRepo.add("Bob")

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	// Вторая партия вставлена первой, но стартовала позже: порядок
	// пересчёта определяет время начала, не порядок вставки.
	completedMatch(matchRepo, singles(*bob), singles(*alice), 1, base.Add(time.Hour))
	completedMatch(matchRepo, singles(*alice), singles(*bob), 1, base)

	rankings, err := svc.GetEloRankings(context.Background(), models.FormatSingles)
	if err != nil {
		t.Fatalf("GetEloRankings: %v", err)
	}

	rows := make(map[int]models.EloRanking, len(rankings))
	for _, r := range rankings {
		rows[r.PlayerID] = r
	}

	// 1516 против 1484: реванш Боба приносит ему больше 16 пунктов.
	if rows[bob.ID].Elo != 1501 {
		t.Errorf("Bob's elo = %d, want 1501", rows[bob.ID].Elo)
	}
	if rows[alice.ID].Elo != 1499 {
		t.Errorf("Alice's elo = %d, want 1499", rows[alice.ID].Elo)
	}
	if rows[alice.ID].GamesPlayed != 2 {
		t.Errorf("expected 2 games played, got %d", rows[alice.ID].GamesPlayed)
	}
}
