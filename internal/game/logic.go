package game

import "sort"

// TotalTeamLives sums the remaining lives of a team's players.
func TotalTeamLives(players []*Player, team int) int {
	total := 0
	for _, p := range players {
		if p.Team == team {
			total += p.Lives
		}
	}
	return total
}

// LivingTeams returns the IDs of teams that have at least one player with lives left.
func LivingTeams(players []*Player) []int {
	seen := make(map[int]bool)
	var living []int
	for _, p := range players {
		if p.Lives > 0 && !seen[p.Team] {
			seen[p.Team] = true
			living = append(living, p.Team)
		}
	}
	sort.Ints(living)
	return living
}

// TeamResult is one team's outcome. A nil SurvivalSeconds means the team
// was still alive at the end.
type TeamResult struct {
	TeamID          int    `json:"team_id"`
	Name            string `json:"name"`
	SurvivalSeconds *int   `json:"survival_seconds"`
	Winner          bool   `json:"winner"`
}

// RankTeams builds results from teams. Teams still alive win; if every team
// was eliminated, the longest survivors win.
func RankTeams(teams []*Team) []TeamResult {
	results := make([]TeamResult, 0, len(teams))
	anyAlive := false
	best := -1
	for _, t := range teams {
		if t.SurvivalSeconds == nil {
			anyAlive = true
		} else if *t.SurvivalSeconds > best {
			best = *t.SurvivalSeconds
		}
	}

	for _, t := range teams {
		var winner bool
		if anyAlive {
			winner = t.SurvivalSeconds == nil
		} else {
			winner = t.SurvivalSeconds != nil && *t.SurvivalSeconds == best
		}
		var survived *int
		if t.SurvivalSeconds != nil {
			v := *t.SurvivalSeconds
			survived = &v
		}
		results = append(results, TeamResult{
			TeamID:          t.ID,
			Name:            t.Name,
			SurvivalSeconds: survived,
			Winner:          winner,
		})
	}
	return results
}
