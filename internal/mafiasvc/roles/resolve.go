package roles

// PlayerState is the projection of a player the resolver works on.
type PlayerState struct {
	PlayerID string
	Role     string
	Alive    bool
	Bullets  int
	Vests    int
	Alerts   int
}

// NightAction is one player's converted action: the action type copied from
// the role, the resolved target identity (empty for keyword-only actions)
// and the keyword, if any.
type NightAction struct {
	Action  string
	Target  string
	Keyword string
}

// Death is one casualty of the night.
type Death struct {
	PlayerID string
	Reason   string
}

// Investigation is a sheriff result to deliver privately.
type Investigation struct {
	InvestigatorID string
	TargetID       string
	Suspicious     bool
}

// NightResult is everything a night resolution produced. The caller applies
// deaths and resource updates to the store; the resolver never touches state.
type NightResult struct {
	Deaths         []Death
	Resources      map[string]PlayerState // players whose counters changed
	Framed         []string
	Doused         []string
	Investigations []Investigation
	Blocked        []string
}

// ResolveNight computes the outcome of one night. Players absent from the
// actions map took no action; that is normal, never an error.
func ResolveNight(players []PlayerState, actions map[string]NightAction, framed, doused []string) NightResult {
	res := NightResult{
		Resources: make(map[string]PlayerState),
		Framed:    append([]string(nil), framed...),
		Doused:    append([]string(nil), doused...),
	}

	state := make(map[string]*PlayerState, len(players))
	for i := range players {
		state[players[i].PlayerID] = &players[i]
	}

	role := func(id string) Definition {
		p, ok := state[id]
		if !ok {
			return Definition{}
		}
		def, _ := GetRoleDefinition(p.Role)
		return def
	}

	// 1. Blocks. An alerted veteran cannot be blocked.
	blocked := make(map[string]bool)
	for _, a := range actions {
		if a.Action != ActionBlock || a.Target == "" {
			continue
		}
		target, ok := state[a.Target]
		if !ok || !target.Alive {
			continue
		}
		ta := actions[a.Target]
		if target.Role == RoleVeteran && ta.Keyword == KeywordAlert {
			continue
		}
		blocked[a.Target] = true
		res.Blocked = append(res.Blocked, a.Target)
	}
	acted := func(id string) (NightAction, bool) {
		a, ok := actions[id]
		if !ok || blocked[id] {
			return NightAction{}, false
		}
		return a, true
	}

	// 2. Self-protection keywords: veteran alert, vest.
	alerted := make(map[string]bool)
	vested := make(map[string]bool)
	for id, p := range state {
		if !p.Alive {
			continue
		}
		a, ok := acted(id)
		if !ok {
			continue
		}
		switch a.Keyword {
		case KeywordAlert:
			if p.Role == RoleVeteran && p.Alerts > 0 {
				alerted[id] = true
				p.Alerts--
				res.Resources[id] = *p
			}
		case KeywordVest:
			if p.Vests > 0 {
				vested[id] = true
				p.Vests--
				res.Resources[id] = *p
			}
		}
	}

	// 3. Protection targets: doctor heal, bodyguard guard.
	protected := make(map[string]bool)
	for id := range state {
		a, ok := acted(id)
		if !ok || a.Target == "" {
			continue
		}
		switch a.Action {
		case ActionHeal, ActionGuard:
			protected[a.Target] = true
		}
	}

	// 4. Visits. Every targeted action visits its target; visiting an
	// alerted veteran is lethal.
	deadSet := make(map[string]bool)
	addDeath := func(id, reason string) {
		if deadSet[id] {
			return
		}
		p, ok := state[id]
		if !ok || !p.Alive {
			return
		}
		deadSet[id] = true
		res.Deaths = append(res.Deaths, Death{PlayerID: id, Reason: reason})
	}
	for id := range state {
		a, ok := acted(id)
		if !ok || a.Target == "" {
			continue
		}
		if alerted[a.Target] {
			addDeath(id, "alert")
		}
	}

	// 5. Mafia kill: the godfather's order overrides the mafioso's pick.
	killTarget := ""
	for id := range state {
		a, ok := acted(id)
		if !ok || a.Action != ActionKill || a.Target == "" {
			continue
		}
		if role(id).ID == RoleGodfather {
			killTarget = a.Target
			break
		}
		if killTarget == "" {
			killTarget = a.Target
		}
	}
	if killTarget != "" && !protected[killTarget] && !vested[killTarget] && !alerted[killTarget] {
		addDeath(killTarget, "killed")
	}

	// 6. Vigilante shots.
	for id, p := range state {
		a, ok := acted(id)
		if !ok || a.Action != ActionShoot || a.Target == "" {
			continue
		}
		if p.Bullets <= 0 {
			continue
		}
		p.Bullets--
		res.Resources[id] = *p
		if protected[a.Target] || vested[a.Target] || alerted[a.Target] {
			continue
		}
		addDeath(a.Target, "shot")
	}

	// 7. Framer marks, arsonist douses or ignites.
	for id := range state {
		a, ok := acted(id)
		if !ok {
			continue
		}
		switch {
		case a.Action == ActionFrame && a.Target != "":
			if !contains(res.Framed, a.Target) {
				res.Framed = append(res.Framed, a.Target)
			}
		case a.Action == ActionDouse && a.Keyword == KeywordIgnite:
			for _, d := range res.Doused {
				addDeath(d, "ignited")
			}
			res.Doused = nil
		case a.Action == ActionDouse && a.Target != "":
			if !contains(res.Doused, a.Target) {
				res.Doused = append(res.Doused, a.Target)
			}
		}
	}

	// 8. Investigations. The godfather reads innocent; framed players read
	// suspicious.
	for id := range state {
		a, ok := acted(id)
		if !ok || a.Action != ActionInvestigate || a.Target == "" {
			continue
		}
		targetRole := role(a.Target)
		suspicious := targetRole.Team == TeamMafia && targetRole.ID != RoleGodfather
		if contains(res.Framed, a.Target) {
			suspicious = true
		}
		res.Investigations = append(res.Investigations, Investigation{
			InvestigatorID: id,
			TargetID:       a.Target,
			Suspicious:     suspicious,
		})
	}

	return res
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
