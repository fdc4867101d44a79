package service

import (
	"context"
	"strings"
	"testing"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
)

// seedVotingGame builds an active voting-phase game with five living
// players: one mafioso and four villagers.
func seedVotingGame(r *rig) {
	r.addGame("g1", models.PhaseVoting, 1, 1)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "villager")
	r.addPlayer("g1", "p3", "villager")
	r.addPlayer("g1", "p4", "villager")
	r.addPlayer("g1", "p5", "villager")
}

func castVote(t *testing.T, r *rig, voterID, targetID string) {
	t.Helper()
	reply, err := r.tally.SubmitVote(context.Background(), "g1", voterID, targetID)
	if err != nil {
		t.Fatalf("SubmitVote(%s, %s): %v", voterID, targetID, err)
	}
	if !strings.HasPrefix(reply, "Vote recorded") {
		t.Fatalf("SubmitVote(%s, %s) rejected: %q", voterID, targetID, reply)
	}
}

func TestSubmitVoteValidation(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	// dead players don't vote
	r.players.find("g1", "p5").Alive = false
	if reply, _ := r.tally.SubmitVote(ctx, "g1", "p5", "p1"); !strings.Contains(reply, "dead") {
		t.Fatalf("dead voter reply = %q", reply)
	}

	// dead players aren't targets
	if reply, _ := r.tally.SubmitVote(ctx, "g1", "p2", "p5"); !strings.Contains(reply, "not a living player") {
		t.Fatalf("dead target reply = %q", reply)
	}

	// outside the voting phase nothing is accepted
	r.games.games["g1"].Phase = models.PhaseDay
	if reply, _ := r.tally.SubmitVote(ctx, "g1", "p2", "p1"); !strings.Contains(reply, "voting phase") {
		t.Fatalf("wrong-phase reply = %q", reply)
	}
}

func TestSubmitVoteOverwrites(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	castVote(t, r, "p2", "p1")
	castVote(t, r, "p2", models.VoteSkip)

	votes, _ := r.votes.GetVotesForDay(ctx, "g1", 1)
	if len(votes) != 1 {
		t.Fatalf("votes = %d, want 1 after overwrite", len(votes))
	}
	if votes[0].TargetID != models.VoteSkip {
		t.Fatalf("target = %s, want skip", votes[0].TargetID)
	}
}

func TestDeleteVote(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	if reply, _ := r.tally.DeleteVote(ctx, "g1", "p2"); !strings.Contains(reply, "no vote to withdraw") {
		t.Fatalf("unvote without a vote reply = %q", reply)
	}

	castVote(t, r, "p2", "p1")
	if reply, _ := r.tally.DeleteVote(ctx, "g1", "p2"); !strings.Contains(reply, "withdrawn") {
		t.Fatalf("unvote reply = %q", reply)
	}

	p, _ := r.players.GetPlayer(ctx, "g1", "p2")
	if p.HasActedThisPhase {
		t.Fatal("acted flag survived the unvote")
	}
	votes, _ := r.votes.GetVotesForDay(ctx, "g1", 1)
	if len(votes) != 0 {
		t.Fatalf("votes = %d, want 0 after unvote", len(votes))
	}
}

func TestTallyMajorityEliminates(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	castVote(t, r, "p2", "p1")
	castVote(t, r, "p3", "p1")
	castVote(t, r, "p4", "p1")
	castVote(t, r, "p1", "p2")

	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("Tally: %v", err)
	}

	p, _ := r.players.GetPlayer(ctx, "g1", "p1")
	if p.Alive {
		t.Fatal("plurality target still alive")
	}
	if p.DeathReason != models.DeathReasonLynched {
		t.Fatalf("death reason = %s, want lynched", p.DeathReason)
	}
	// lynch deaths carry the day counter in the phase-relative field
	if p.DeathPhase != models.PhaseVoting || p.DeathNight != 1 {
		t.Fatalf("death metadata = %s/%d, want voting/1", p.DeathPhase, p.DeathNight)
	}

	deaths := r.events.byType(models.EventDeath)
	if len(deaths) != 1 {
		t.Fatalf("death events = %d, want 1", len(deaths))
	}
	// reveal is on: the announcement names the role
	if !strings.Contains(deaths[0].Description, "Mafioso") {
		t.Fatalf("death event hides the role: %q", deaths[0].Description)
	}
}

func TestTallyTieEliminatesNobody(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	castVote(t, r, "p3", "p1")
	castVote(t, r, "p4", "p1")
	castVote(t, r, "p1", "p2")
	castVote(t, r, "p5", "p2")

	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("Tally: %v", err)
	}

	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		p, _ := r.players.GetPlayer(ctx, "g1", id)
		if !p.Alive {
			t.Fatalf("player %s eliminated on a tied vote", id)
		}
	}
	if got := r.events.byType(models.EventDeath); len(got) != 0 {
		t.Fatalf("death events = %d, want 0", len(got))
	}
	found := false
	for _, a := range r.notifier.announcements {
		if strings.Contains(a, "tie") {
			found = true
		}
	}
	if !found {
		t.Fatal("no tie announcement")
	}
}

func TestTallySkipPluralityEliminatesNobody(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	castVote(t, r, "p2", models.VoteSkip)
	castVote(t, r, "p3", models.VoteSkip)
	castVote(t, r, "p4", models.VoteSkip)
	castVote(t, r, "p1", "p2")

	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("Tally: %v", err)
	}

	p, _ := r.players.GetPlayer(ctx, "g1", "p2")
	if !p.Alive {
		t.Fatal("player eliminated despite a skip plurality")
	}
	found := false
	for _, a := range r.notifier.announcements {
		if strings.Contains(a, "skip") {
			found = true
		}
	}
	if !found {
		t.Fatal("no skip announcement")
	}
}

func TestTallyNoVotes(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("Tally: %v", err)
	}

	if got := r.events.byType(models.EventDeath); len(got) != 0 {
		t.Fatalf("death events = %d, want 0", len(got))
	}
	found := false
	for _, a := range r.notifier.announcements {
		if strings.Contains(a, "no votes") {
			found = true
		}
	}
	if !found {
		t.Fatal("no zero-vote announcement")
	}
}

func TestTallyRerunIsNoOp(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	seedVotingGame(r)

	castVote(t, r, "p2", "p1")
	castVote(t, r, "p3", "p1")
	castVote(t, r, "p4", "p1")

	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("first Tally: %v", err)
	}
	deaths := len(r.events.byType(models.EventDeath))
	announcements := len(r.notifier.announcements)

	// a double-resolution (sweeper plus early-end racing) must not tally
	// the same day twice
	if err := r.tally.Tally(ctx, "g1"); err != nil {
		t.Fatalf("second Tally: %v", err)
	}

	if got := len(r.events.byType(models.EventDeath)); got != deaths {
		t.Fatalf("death events grew from %d to %d on the re-run", deaths, got)
	}
	if got := len(r.notifier.announcements); got != announcements {
		t.Fatalf("announcements grew from %d to %d on the re-run", announcements, got)
	}
}
