package broker

import (
	"context"
	"strings"
	"testing"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/comm"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/service"
)

// stubGames answers the channel lookup only; nothing else is reachable from
// the commands under test.
type stubGames struct {
	service.GameStore
	open *models.Game
}

func (s stubGames) GetOpenGameByChannel(ctx context.Context, channelID string) (*models.Game, error) {
	return s.open, nil
}

func TestDispatchCommandReportsOutcome(t *testing.T) {
	b := &Broker{}
	ctx := context.Background()

	if reply, ok := b.dispatchCommand(ctx, &comm.CommandRequest{Command: "help"}); !ok || reply == "" {
		t.Fatalf("help: ok=%v reply=%q", ok, reply)
	}
	if _, ok := b.dispatchCommand(ctx, &comm.CommandRequest{Command: "leave"}); ok {
		t.Fatal("leave is always rejected and must say so")
	}
	if reply, ok := b.dispatchCommand(ctx, &comm.CommandRequest{Command: "bogus"}); ok || !strings.Contains(reply, "Unknown command") {
		t.Fatalf("unknown command: ok=%v reply=%q", ok, reply)
	}
}

func TestCmdCancelRejectsNonOrganizer(t *testing.T) {
	b := &Broker{Games: stubGames{open: &models.Game{ID: "g1", OrganizerID: "org", Status: models.GameStatusPending}}}

	reply, ok := b.dispatchCommand(context.Background(),
		&comm.CommandRequest{Command: "cancel", UserId: "someone-else", ChannelId: "c1"})
	if ok {
		t.Fatal("a rejected cancel must not report success")
	}
	if !strings.Contains(reply, "organizer") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCmdVoteRequiresTarget(t *testing.T) {
	b := &Broker{}

	reply, ok := b.dispatchCommand(context.Background(),
		&comm.CommandRequest{Command: "vote", UserId: "p1", ChannelId: "c1"})
	if ok {
		t.Fatal("vote without a target must not report success")
	}
	if !strings.Contains(reply, "vote <player|skip>") {
		t.Fatalf("reply = %q", reply)
	}
}
