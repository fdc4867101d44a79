package roles

import (
	"math/rand"
)

// Teams
const (
	TeamTown    = "town"
	TeamMafia   = "mafia"
	TeamNeutral = "neutral"
)

// Action types
const (
	ActionNone        = ""
	ActionInvestigate = "investigate"
	ActionHeal        = "heal"
	ActionShoot       = "shoot"
	ActionAlert       = "alert"
	ActionGuard       = "guard"
	ActionBlock       = "block"
	ActionKill        = "kill"
	ActionFrame       = "frame"
	ActionDouse       = "douse"
)

// Night keywords accepted as free text alongside numeric targets.
const (
	KeywordSkip   = "skip"
	KeywordAlert  = "alert"
	KeywordVest   = "vest"
	KeywordIgnite = "ignite"
)

// Role identifiers
const (
	RoleVillager  = "villager"
	RoleSheriff   = "sheriff"
	RoleDoctor    = "doctor"
	RoleVigilante = "vigilante"
	RoleVeteran   = "veteran"
	RoleBodyguard = "bodyguard"
	RoleEscort    = "escort"
	RoleMayor     = "mayor"
	RoleMafioso   = "mafioso"
	RoleGodfather = "godfather"
	RoleFramer    = "framer"
	RoleConsort   = "consort"
	RoleArsonist  = "arsonist"
)

// Tiers
const (
	TierBasic   = "basic"
	TierPremium = "premium"
)

// Definition is one static role entry of the catalog.
type Definition struct {
	ID           string
	Name         string
	Team         string
	ActionType   string
	NightAction  bool
	Abilities    string
	WinCondition string
	Tier         string
	IsVoiceOnly  bool
	Bullets      int
	Vests        int
	Alerts       int
}

var catalog = map[string]Definition{
	RoleVillager: {
		ID: RoleVillager, Name: "Villager", Team: TeamTown,
		ActionType: ActionNone, NightAction: false,
		Abilities:    "No night ability. Wins with the town.",
		WinCondition: "eliminate the mafia",
		Tier:         TierBasic,
	},
	RoleSheriff: {
		ID: RoleSheriff, Name: "Sheriff", Team: TeamTown,
		ActionType: ActionInvestigate, NightAction: true,
		Abilities:    "Investigates one player each night for suspicious activity.",
		WinCondition: "eliminate the mafia",
		Tier:         TierBasic,
	},
	RoleDoctor: {
		ID: RoleDoctor, Name: "Doctor", Team: TeamTown,
		ActionType: ActionHeal, NightAction: true,
		Abilities:    "Protects one player from death each night.",
		WinCondition: "eliminate the mafia",
		Tier:         TierBasic,
	},
	RoleVigilante: {
		ID: RoleVigilante, Name: "Vigilante", Team: TeamTown,
		ActionType: ActionShoot, NightAction: true,
		Abilities:    "Can shoot a player at night. Three bullets.",
		WinCondition: "eliminate the mafia",
		Tier:         TierBasic,
		Bullets:      3,
	},
	RoleVeteran: {
		ID: RoleVeteran, Name: "Veteran", Team: TeamTown,
		ActionType: ActionAlert, NightAction: true,
		Abilities:    "Can go on alert, killing anyone who visits. Three alerts.",
		WinCondition: "eliminate the mafia",
		Tier:         TierPremium,
		Alerts:       3,
	},
	RoleBodyguard: {
		ID: RoleBodyguard, Name: "Bodyguard", Team: TeamTown,
		ActionType: ActionGuard, NightAction: true,
		Abilities:    "Guards one player each night. Three vests for self-protection.",
		WinCondition: "eliminate the mafia",
		Tier:         TierPremium,
		Vests:        3,
	},
	RoleEscort: {
		ID: RoleEscort, Name: "Escort", Team: TeamTown,
		ActionType: ActionBlock, NightAction: true,
		Abilities:    "Blocks one player's night action.",
		WinCondition: "eliminate the mafia",
		Tier:         TierPremium,
	},
	RoleMayor: {
		ID: RoleMayor, Name: "Mayor", Team: TeamTown,
		ActionType: ActionNone, NightAction: false,
		Abilities:    "Reveals during a voice meeting for extra vote weight.",
		WinCondition: "eliminate the mafia",
		Tier:         TierBasic,
		IsVoiceOnly:  true,
	},
	RoleMafioso: {
		ID: RoleMafioso, Name: "Mafioso", Team: TeamMafia,
		ActionType: ActionKill, NightAction: true,
		Abilities:    "Kills one player each night for the mafia.",
		WinCondition: "outnumber the town",
		Tier:         TierBasic,
	},
	RoleGodfather: {
		ID: RoleGodfather, Name: "Godfather", Team: TeamMafia,
		ActionType: ActionKill, NightAction: true,
		Abilities:    "Orders the night kill. Appears innocent to investigations.",
		WinCondition: "outnumber the town",
		Tier:         TierBasic,
	},
	RoleFramer: {
		ID: RoleFramer, Name: "Framer", Team: TeamMafia,
		ActionType: ActionFrame, NightAction: true,
		Abilities:    "Frames one player to appear suspicious to investigations.",
		WinCondition: "outnumber the town",
		Tier:         TierBasic,
	},
	RoleConsort: {
		ID: RoleConsort, Name: "Consort", Team: TeamMafia,
		ActionType: ActionBlock, NightAction: true,
		Abilities:    "Blocks one player's night action for the mafia.",
		WinCondition: "outnumber the town",
		Tier:         TierPremium,
	},
	RoleArsonist: {
		ID: RoleArsonist, Name: "Arsonist", Team: TeamNeutral,
		ActionType: ActionDouse, NightAction: true,
		Abilities:    "Douses players in gasoline, or ignites everyone doused.",
		WinCondition: "be the last one standing",
		Tier:         TierBasic,
	},
}

// GetRoleDefinition looks a role up by identifier.
func GetRoleDefinition(id string) (Definition, bool) {
	def, ok := catalog[id]
	return def, ok
}

// GetEligibleRoles returns the roles a game of the given tier may assign.
// Voice-dependent roles are never auto-assigned; premium roles are excluded
// for basic-tier games.
func GetEligibleRoles(tier string) []Definition {
	var defs []Definition
	for _, id := range []string{
		RoleVillager, RoleSheriff, RoleDoctor, RoleVigilante, RoleVeteran,
		RoleBodyguard, RoleEscort, RoleMayor, RoleMafioso, RoleGodfather,
		RoleFramer, RoleConsort, RoleArsonist,
	} {
		def := catalog[id]
		if def.IsVoiceOnly {
			continue
		}
		if tier != TierPremium && def.Tier == TierPremium {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// BuildRolePool assembles a shuffled pool of n roles for assignment.
// Composition: 2 mafia below 12 players, 3 from 12 up; one arsonist from 10
// players; unique town power roles first, villagers fill the rest.
func BuildRolePool(n int, tier string) []Definition {
	eligible := GetEligibleRoles(tier)

	var mafia, town []Definition
	var arsonist *Definition
	for i := range eligible {
		def := eligible[i]
		switch def.Team {
		case TeamMafia:
			mafia = append(mafia, def)
		case TeamNeutral:
			if def.ID == RoleArsonist {
				arsonist = &def
			}
		default:
			if def.ID != RoleVillager {
				town = append(town, def)
			}
		}
	}

	mafiaCount := 2
	if n >= 12 {
		mafiaCount = 3
	}

	pool := make([]Definition, 0, n)

	rand.Shuffle(len(mafia), func(i, j int) { mafia[i], mafia[j] = mafia[j], mafia[i] })
	for i := 0; i < mafiaCount && len(pool) < n; i++ {
		pool = append(pool, mafia[i%len(mafia)])
	}

	if n >= 10 && arsonist != nil && len(pool) < n {
		pool = append(pool, *arsonist)
	}

	rand.Shuffle(len(town), func(i, j int) { town[i], town[j] = town[j], town[i] })
	for i := 0; i < len(town) && len(pool) < n; i++ {
		pool = append(pool, town[i])
	}

	for len(pool) < n {
		pool = append(pool, catalog[RoleVillager])
	}

	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	return pool
}
