package service

import (
	"context"
	"strings"
	"testing"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
)

func TestSubmitNightActionValidation(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "villager")
	dead := r.addPlayer("g1", "p3", "sheriff")
	dead.Alive = false

	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p2", "1"); !strings.Contains(reply, "no night action") {
		t.Fatalf("villager reply = %q", reply)
	}
	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p3", "1"); !strings.Contains(reply, "dead") {
		t.Fatalf("dead player reply = %q", reply)
	}
	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "stranger", "1"); !strings.Contains(reply, "not part") {
		t.Fatalf("outsider reply = %q", reply)
	}

	r.games.games["g1"].Phase = models.PhaseDay
	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p1", "1"); !strings.Contains(reply, "night phase") {
		t.Fatalf("wrong-phase reply = %q", reply)
	}

	if len(r.actions.actions) != 0 {
		t.Fatalf("rejected submissions stored %d actions", len(r.actions.actions))
	}
}

func TestSubmitNightActionKeywords(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	g := r.addGame("g1", models.PhaseNight, 1, 0)
	g.Tier = models.TierPremium
	r.addPlayer("g1", "p1", "veteran")
	r.addPlayer("g1", "p2", "sheriff")
	r.addPlayer("g1", "p3", "mafioso")

	// keywords match case-insensitively and store keyword-only actions
	reply, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "  ALERT ")
	if err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}
	if !strings.Contains(reply, "alert") {
		t.Fatalf("alert reply = %q", reply)
	}
	if len(r.actions.actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(r.actions.actions))
	}
	a := r.actions.actions[0]
	if !a.Keyword.Valid || a.Keyword.String != "alert" || a.TargetID.Valid {
		t.Fatalf("stored action = %+v, want keyword-only alert", a)
	}

	// a keyword outside the role's vocabulary is invalid input
	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p2", "alert"); !strings.Contains(reply, "didn't understand") {
		t.Fatalf("sheriff alert reply = %q", reply)
	}
}

func TestSubmitNightActionNumericFormatOnly(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "sheriff")
	r.addPlayer("g1", "p3", "villager")

	for _, bad := range []string{"0", "-1", "first", ""} {
		if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p1", bad); !strings.Contains(reply, "didn't understand") {
			t.Fatalf("input %q reply = %q", bad, reply)
		}
	}

	// out-of-roster numbers pass the format check; the roster may shrink
	// before resolution
	if reply, _ := r.collector.SubmitNightAction(ctx, "g1", "p1", "7"); !strings.Contains(reply, "locked in") {
		t.Fatalf("input 7 reply = %q", reply)
	}

	p, _ := r.players.GetPlayer(ctx, "g1", "p1")
	if !p.HasActedThisPhase {
		t.Fatal("submission did not mark the player acted")
	}
}

func TestSubmitNightActionOverwrites(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "sheriff")
	r.addPlayer("g1", "p3", "villager")

	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "2"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}
	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "skip"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}

	if len(r.actions.actions) != 1 {
		t.Fatalf("actions = %d, want 1 after overwrite", len(r.actions.actions))
	}
	a := r.actions.actions[0]
	if !a.Keyword.Valid || a.Keyword.String != "skip" || a.TargetID.Valid {
		t.Fatalf("stored action = %+v, want keyword-only skip", a)
	}
}

func TestResolveNightIndexesAliveAtResolutionTime(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "villager")
	r.addPlayer("g1", "p3", "villager")
	r.addPlayer("g1", "p4", "sheriff")

	// mafioso picks position 2; p2 holds it now
	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "2"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}

	// p2 leaves the roster before resolution, shifting p3 into position 2
	r.players.find("g1", "p2").Alive = false

	if err := r.collector.ResolveNight(ctx, "g1"); err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}

	p3, _ := r.players.GetPlayer(ctx, "g1", "p3")
	if p3.Alive {
		t.Fatal("position 2 at resolution time survived")
	}
	if p3.DeathReason != models.DeathReasonKilled || p3.DeathPhase != models.PhaseNight || p3.DeathNight != 1 {
		t.Fatalf("death metadata = %s/%s/%d, want killed/night/1", p3.DeathReason, p3.DeathPhase, p3.DeathNight)
	}
}

func TestResolveNightHealBlocksKill(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "doctor")
	r.addPlayer("g1", "p3", "villager")
	r.addPlayer("g1", "p4", "sheriff")

	// both pick position 3 (p3): the kill meets the heal
	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "3"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}
	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p2", "3"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}

	if err := r.collector.ResolveNight(ctx, "g1"); err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}

	p3, _ := r.players.GetPlayer(ctx, "g1", "p3")
	if !p3.Alive {
		t.Fatal("healed player died")
	}
	if got := r.events.byType(models.EventDeath); len(got) != 0 {
		t.Fatalf("death events = %d, want 0", len(got))
	}
}

func TestResolveNightInvestigationPrompts(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "sheriff")
	r.addPlayer("g1", "p2", "mafioso")
	r.addPlayer("g1", "p3", "godfather")
	r.addPlayer("g1", "p4", "villager")

	// position 2 is the mafioso
	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "2"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}

	if err := r.collector.ResolveNight(ctx, "g1"); err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}

	prompts := r.notifier.prompts["p1"]
	if len(prompts) != 1 || !strings.Contains(prompts[0], "hiding something") {
		t.Fatalf("sheriff prompts = %q, want a suspicious verdict", prompts)
	}
}

func TestResolveNightRerunIsHarmless(t *testing.T) {
	r := newRig()
	ctx := context.Background()
	r.addGame("g1", models.PhaseNight, 1, 0)
	r.addPlayer("g1", "p1", "mafioso")
	r.addPlayer("g1", "p2", "villager")
	r.addPlayer("g1", "p3", "villager")
	r.addPlayer("g1", "p4", "sheriff")

	if _, err := r.collector.SubmitNightAction(ctx, "g1", "p1", "2"); err != nil {
		t.Fatalf("SubmitNightAction: %v", err)
	}

	if err := r.collector.ResolveNight(ctx, "g1"); err != nil {
		t.Fatalf("first ResolveNight: %v", err)
	}
	deaths := len(r.events.byType(models.EventDeath))
	if deaths != 1 {
		t.Fatalf("death events = %d, want 1", deaths)
	}

	// processed actions are excluded on the second pass
	if err := r.collector.ResolveNight(ctx, "g1"); err != nil {
		t.Fatalf("second ResolveNight: %v", err)
	}
	if got := len(r.events.byType(models.EventDeath)); got != deaths {
		t.Fatalf("death events grew from %d to %d on the re-run", deaths, got)
	}
}
