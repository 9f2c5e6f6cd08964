package model

import "sort"

// Winner is the tally of games won under one player name
type Winner struct {
	Name string
	Wins int
}

// SortWinners orders the table by most wins, ties broken by name
func SortWinners(winners []Winner) {
	sort.Slice(winners, func(i, j int) bool {
		if winners[i].Wins != winners[j].Wins {
			return winners[i].Wins > winners[j].Wins
		}
		return winners[i].Name < winners[j].Name
	})
}
