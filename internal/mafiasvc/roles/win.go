package roles

// EvaluateWin checks the (role, alive) projection for a game-over state.
// Returns the winning team and true when the game is over. An empty team
// with over=true means nobody survived.
func EvaluateWin(players []PlayerState) (string, bool) {
	var aliveMafia, aliveTown, aliveNeutral, alive int
	for _, p := range players {
		if !p.Alive {
			continue
		}
		alive++
		def, ok := GetRoleDefinition(p.Role)
		if !ok {
			continue
		}
		switch def.Team {
		case TeamMafia:
			aliveMafia++
		case TeamNeutral:
			aliveNeutral++
		default:
			aliveTown++
		}
	}

	if alive == 0 {
		return "", true
	}
	if aliveNeutral > 0 && aliveMafia == 0 && aliveTown == 0 {
		return TeamNeutral, true
	}
	if aliveMafia == 0 && aliveNeutral == 0 {
		return TeamTown, true
	}
	// mafia wins on parity: the night kill settles it
	if aliveMafia > 0 && aliveMafia >= aliveTown+aliveNeutral {
		return TeamMafia, true
	}
	return "", false
}
