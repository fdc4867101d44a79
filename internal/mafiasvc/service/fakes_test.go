package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/shopspring/decimal"
)

// In-memory store fakes. Single-goroutine tests mostly, but the notifier
// fake locks because the sweeper exercises it from its own goroutine.

type fakeGameStore struct {
	games  map[string]*models.Game
	ending map[string]bool
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: make(map[string]*models.Game), ending: make(map[string]bool)}
}

func (s *fakeGameStore) CreateGame(ctx context.Context, g *models.Game) error {
	cp := *g
	s.games[g.ID] = &cp
	return nil
}

func (s *fakeGameStore) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	g, ok := s.games[gameID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *fakeGameStore) GetOpenGameByChannel(ctx context.Context, channelID string) (*models.Game, error) {
	for _, g := range s.games {
		if g.ChannelID == channelID && (g.Status == models.GameStatusPending || g.Status == models.GameStatusActive) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeGameStore) GetAllActiveGames(ctx context.Context) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range s.games {
		if g.Status == models.GameStatusPending || g.Status == models.GameStatusActive {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeGameStore) GetActiveGames(ctx context.Context, communityID string) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range s.games {
		if g.CommunityID == communityID && (g.Status == models.GameStatusPending || g.Status == models.GameStatusActive) {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeGameStore) AdvancePhase(ctx context.Context, gameID, phase string, start, deadline time.Time, incrNight, incrDay bool) error {
	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("no game %s", gameID)
	}
	g.Phase = phase
	g.PhaseStartTime.Time, g.PhaseStartTime.Valid = start, true
	g.PhaseDeadline.Time, g.PhaseDeadline.Valid = deadline, true
	if incrNight {
		g.NightNumber++
	}
	if incrDay {
		g.DayNumber++
	}
	s.ending[gameID] = false
	return nil
}

func (s *fakeGameStore) ClaimPhaseEnd(ctx context.Context, gameID, fromPhase string) (bool, error) {
	g, ok := s.games[gameID]
	if !ok || g.Status != models.GameStatusActive || g.Phase != fromPhase || s.ending[gameID] {
		return false, nil
	}
	s.ending[gameID] = true
	return true, nil
}

func (s *fakeGameStore) ReleasePhaseEnd(ctx context.Context, gameID string) error {
	s.ending[gameID] = false
	return nil
}

func (s *fakeGameStore) SetTerminal(ctx context.Context, gameID, status string) error {
	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("no game %s", gameID)
	}
	g.Status = status
	g.Phase = models.PhaseEnded
	return nil
}

func (s *fakeGameStore) ActivateGame(ctx context.Context, gameID string) (bool, error) {
	g, ok := s.games[gameID]
	if !ok || g.Status != models.GameStatusPending {
		return false, nil
	}
	g.Status = models.GameStatusActive
	return true, nil
}

func (s *fakeGameStore) UpdateStatusSets(ctx context.Context, gameID string, framed, doused []string) error {
	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("no game %s", gameID)
	}
	g.FramedPlayers = framed
	g.DousedPlayers = doused
	return nil
}

func (s *fakeGameStore) UpdateStatusMessageID(ctx context.Context, gameID, messageID string) error {
	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("no game %s", gameID)
	}
	g.StatusMessageID = messageID
	return nil
}

type fakePlayerStore struct {
	games   *fakeGameStore
	players []*models.Player // insertion order, like the created_at ordering

	failGetPlayers int // remaining GetPlayers calls to fail
}

func newFakePlayerStore(games *fakeGameStore) *fakePlayerStore {
	return &fakePlayerStore{games: games}
}

func (s *fakePlayerStore) find(gameID, playerID string) *models.Player {
	for _, p := range s.players {
		if p.GameID == gameID && p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func (s *fakePlayerStore) AddPlayer(ctx context.Context, gameID, playerID, displayName string) (*models.Player, error) {
	if s.find(gameID, playerID) != nil {
		return nil, fmt.Errorf("player %s already joined", playerID)
	}
	p := &models.Player{
		GameID:      gameID,
		PlayerID:    playerID,
		DisplayName: displayName,
		Role:        models.RolePending,
		Alive:       true,
	}
	s.players = append(s.players, p)
	return p, nil
}

func (s *fakePlayerStore) GetPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	p := s.find(gameID, playerID)
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakePlayerStore) GetPlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	if s.failGetPlayers > 0 {
		s.failGetPlayers--
		return nil, fmt.Errorf("players unavailable")
	}
	var out []*models.Player
	for _, p := range s.players {
		if p.GameID == gameID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakePlayerStore) GetAlivePlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	var out []*models.Player
	for _, p := range s.players {
		if p.GameID == gameID && p.Alive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakePlayerStore) CountPlayers(ctx context.Context, gameID string) (int, error) {
	n := 0
	for _, p := range s.players {
		if p.GameID == gameID {
			n++
		}
	}
	return n, nil
}

func (s *fakePlayerStore) GetPlayerActiveGame(ctx context.Context, playerID string) (*models.Game, error) {
	for _, p := range s.players {
		if p.PlayerID != playerID {
			continue
		}
		g, ok := s.games.games[p.GameID]
		if ok && (g.Status == models.GameStatusPending || g.Status == models.GameStatusActive) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakePlayerStore) MarkActed(ctx context.Context, gameID, playerID string, at time.Time) error {
	p := s.find(gameID, playerID)
	if p == nil {
		return fmt.Errorf("no player %s", playerID)
	}
	p.HasActedThisPhase = true
	p.IsInactive = false
	p.LastActionTime.Time, p.LastActionTime.Valid = at, true
	return nil
}

func (s *fakePlayerStore) ClearActed(ctx context.Context, gameID, playerID string) error {
	p := s.find(gameID, playerID)
	if p == nil {
		return fmt.Errorf("no player %s", playerID)
	}
	p.HasActedThisPhase = false
	return nil
}

func (s *fakePlayerStore) MarkInactive(ctx context.Context, gameID, playerID string) error {
	p := s.find(gameID, playerID)
	if p == nil {
		return fmt.Errorf("no player %s", playerID)
	}
	p.IsInactive = true
	return nil
}

func (s *fakePlayerStore) ResetPhaseActions(ctx context.Context, gameID string) error {
	for _, p := range s.players {
		if p.GameID == gameID && p.Alive {
			p.HasActedThisPhase = false
		}
	}
	return nil
}

func (s *fakePlayerStore) AssignRole(ctx context.Context, gameID, playerID, role string, bullets, vests, alerts int) error {
	p := s.find(gameID, playerID)
	if p == nil {
		return fmt.Errorf("no player %s", playerID)
	}
	p.Role = role
	p.BulletsRemaining = bullets
	p.VestsRemaining = vests
	p.AlertsRemaining = alerts
	return nil
}

func (s *fakePlayerStore) UpdateResources(ctx context.Context, gameID, playerID string, bullets, vests, alerts int) error {
	p := s.find(gameID, playerID)
	if p == nil {
		return fmt.Errorf("no player %s", playerID)
	}
	p.BulletsRemaining = bullets
	p.VestsRemaining = vests
	p.AlertsRemaining = alerts
	return nil
}

func (s *fakePlayerStore) MarkDead(ctx context.Context, gameID, playerID, reason, phase string, counter int) (bool, error) {
	p := s.find(gameID, playerID)
	if p == nil || !p.Alive {
		return false, nil
	}
	p.Alive = false
	p.DeathReason = reason
	p.DeathPhase = phase
	p.DeathNight = counter
	return true, nil
}

type fakeActionStore struct {
	actions []*models.Action
}

func (s *fakeActionStore) UpsertAction(ctx context.Context, a *models.Action) error {
	for _, existing := range s.actions {
		if existing.GameID == a.GameID && existing.NightNumber == a.NightNumber && existing.PlayerID == a.PlayerID {
			existing.ActionType = a.ActionType
			existing.TargetID = a.TargetID
			existing.Keyword = a.Keyword
			existing.Processed = false
			return nil
		}
	}
	cp := *a
	s.actions = append(s.actions, &cp)
	return nil
}

func (s *fakeActionStore) GetActionsForNight(ctx context.Context, gameID string, nightNumber int) ([]*models.Action, error) {
	var out []*models.Action
	for _, a := range s.actions {
		if a.GameID == gameID && a.NightNumber == nightNumber && !a.Processed {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeActionStore) MarkActionsProcessed(ctx context.Context, gameID string, nightNumber int) error {
	for _, a := range s.actions {
		if a.GameID == gameID && a.NightNumber == nightNumber {
			a.Processed = true
		}
	}
	return nil
}

type fakeVoteStore struct {
	votes  []*models.Vote
	nextID int64
}

func (s *fakeVoteStore) UpsertVote(ctx context.Context, v *models.Vote) error {
	for _, existing := range s.votes {
		if existing.GameID == v.GameID && existing.DayNumber == v.DayNumber && existing.VoterID == v.VoterID {
			existing.TargetID = v.TargetID
			existing.Processed = false
			return nil
		}
	}
	s.nextID++
	cp := *v
	cp.ID = s.nextID
	s.votes = append(s.votes, &cp)
	return nil
}

func (s *fakeVoteStore) DeleteVote(ctx context.Context, gameID string, dayNumber int, voterID string) (bool, error) {
	for i, v := range s.votes {
		if v.GameID == gameID && v.DayNumber == dayNumber && v.VoterID == voterID {
			s.votes = append(s.votes[:i], s.votes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeVoteStore) GetVotesForDay(ctx context.Context, gameID string, dayNumber int) ([]*models.Vote, error) {
	var out []*models.Vote
	for _, v := range s.votes {
		if v.GameID == gameID && v.DayNumber == dayNumber {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeVoteStore) MarkVotesProcessed(ctx context.Context, gameID string, dayNumber int) error {
	for _, v := range s.votes {
		if v.GameID == gameID && v.DayNumber == dayNumber {
			v.Processed = true
		}
	}
	return nil
}

type fakeEventStore struct {
	events []*models.Event
}

func (s *fakeEventStore) CreateEvent(ctx context.Context, gameID, phase, eventType, description string, payload map[string]string) error {
	s.events = append(s.events, &models.Event{
		GameID:      gameID,
		Phase:       phase,
		Type:        eventType,
		Description: description,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (s *fakeEventStore) GetRecentEvents(ctx context.Context, gameID string, n int) ([]*models.Event, error) {
	var out []*models.Event
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		if s.events[i].GameID == gameID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

func (s *fakeEventStore) byType(eventType string) []*models.Event {
	var out []*models.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type rewardEntry struct {
	userID string
	amount decimal.Decimal
	gameID string
}

type fakeBalanceStore struct {
	rewards []rewardEntry
}

func (s *fakeBalanceStore) GetBalanceByUserID(ctx context.Context, userID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range s.rewards {
		if r.userID == userID {
			total = total.Add(r.amount)
		}
	}
	return total, nil
}

func (s *fakeBalanceStore) CreateReward(ctx context.Context, userID string, amount decimal.Decimal, gameID string) error {
	s.rewards = append(s.rewards, rewardEntry{userID: userID, amount: amount, gameID: gameID})
	return nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	announcements []string
	prompts       map[string][]string
	refreshes     int
	displays      int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{prompts: make(map[string][]string)}
}

func (n *fakeNotifier) Announce(channelID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announcements = append(n.announcements, text)
}

func (n *fakeNotifier) PromptPlayer(playerID, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts[playerID] = append(n.prompts[playerID], text)
}

func (n *fakeNotifier) RefreshStatusDisplay(ctx context.Context, gameID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refreshes++
}

func (n *fakeNotifier) CreateStatusDisplay(ctx context.Context, gameID string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.displays++
	return "status-message-1", nil
}

// rig bundles a fully wired scheduler, collector and tally engine over the
// fakes.
type rig struct {
	games     *fakeGameStore
	players   *fakePlayerStore
	actions   *fakeActionStore
	votes     *fakeVoteStore
	events    *fakeEventStore
	balances  *fakeBalanceStore
	notifier  *fakeNotifier
	scheduler *PhaseScheduler
	collector *ActionCollector
	tally     *VoteTallyEngine
}

func newRig() *rig {
	games := newFakeGameStore()
	players := newFakePlayerStore(games)
	actions := &fakeActionStore{}
	votes := &fakeVoteStore{}
	events := &fakeEventStore{}
	balances := &fakeBalanceStore{}
	notifier := newFakeNotifier()

	scheduler := NewPhaseScheduler(games, players, events, notifier, NewRewardService(balances))
	collector := NewActionCollector(games, players, actions, events, notifier, scheduler)
	tally := NewVoteTallyEngine(games, players, votes, events, notifier, scheduler)
	scheduler.BindHooks(collector, tally)

	return &rig{
		games:     games,
		players:   players,
		actions:   actions,
		votes:     votes,
		events:    events,
		balances:  balances,
		notifier:  notifier,
		scheduler: scheduler,
		collector: collector,
		tally:     tally,
	}
}

// addGame seeds an active game in the given phase.
func (r *rig) addGame(id, phase string, night, day int) *models.Game {
	g := &models.Game{
		ID:          id,
		CommunityID: "community-1",
		ChannelID:   "channel-" + id,
		OrganizerID: "organizer",
		Status:      models.GameStatusActive,
		Phase:       phase,
		NightNumber: night,
		DayNumber:   day,
		RevealRoles: true,
		Tier:        models.TierBasic,
	}
	g.PhaseStartTime.Time, g.PhaseStartTime.Valid = time.Now(), true
	g.PhaseDeadline.Time, g.PhaseDeadline.Valid = time.Now().Add(24*time.Hour), true
	r.games.games[id] = g
	return g
}

// addPlayer seeds a living player with a role.
func (r *rig) addPlayer(gameID, playerID, role string) *models.Player {
	p := &models.Player{
		GameID:      gameID,
		PlayerID:    playerID,
		DisplayName: "name-" + playerID,
		Role:        role,
		Alive:       true,
	}
	switch role {
	case "vigilante":
		p.BulletsRemaining = 3
	case "bodyguard":
		p.VestsRemaining = 3
	case "veteran":
		p.AlertsRemaining = 3
	}
	r.players.players = append(r.players.players, p)
	return p
}
