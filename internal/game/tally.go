package game

import (
	"sort"
	"strings"

	"partyrooms/internal/models"
)

// SpyCount returns how many spies a game with the given number of players gets
func SpyCount(players int) int {
	switch {
	case players >= 7:
		return 3
	case players >= 5:
		return 2
	default:
		return 1
	}
}

// NextTurn advances a round-robin turn index
func NextTurn(index, players int) int {
	if players <= 0 {
		return 0
	}
	return (index + 1) % players
}

// VoteTally is the outcome of counting one voting round
type VoteTally struct {
	// Counts includes votes cast for anyone, eliminated or not
	Counts map[string]int
	// ActiveCounts only includes votes for active players
	ActiveCounts map[string]int
	// Leaders are the active players sharing the highest count, sorted by id
	Leaders  []string
	MaxVotes int
}

// IsTie reports whether more than one player shares the highest count
func (t VoteTally) IsTie() bool {
	return len(t.Leaders) > 1
}

// Eliminated returns the single most-voted player, if there is one
func (t VoteTally) Eliminated() (string, bool) {
	if len(t.Leaders) != 1 {
		return "", false
	}
	return t.Leaders[0], true
}

// CountVotes tallies voter->target votes, counting only targets for which isActive is true
func CountVotes(votes map[string]string, isActive func(playerID string) bool) VoteTally {
	tally := VoteTally{
		Counts:       make(map[string]int),
		ActiveCounts: make(map[string]int),
	}

	for _, target := range votes {
		tally.Counts[target]++
	}

	for target, count := range tally.Counts {
		if !isActive(target) {
			continue
		}
		tally.ActiveCounts[target] = count
		switch {
		case count > tally.MaxVotes:
			tally.MaxVotes = count
			tally.Leaders = []string{target}
		case count == tally.MaxVotes:
			tally.Leaders = append(tally.Leaders, target)
		}
	}

	sort.Strings(tally.Leaders)
	return tally
}

// EndCheck decides whether a game is over after an elimination.
// Spies being gone wins it for the players before the headcount is considered.
func EndCheck(activeSpies, activePlayers int) (bool, models.EndReason) {
	if activeSpies == 0 {
		return true, models.EndReasonSpiesEliminated
	}
	if activePlayers < models.MinSpyPlayers {
		return true, models.EndReasonNotEnoughPlayers
	}
	return false, ""
}

// GuessTally is the outcome of the vote on a spy's guess
type GuessTally struct {
	Yes      int
	No       int
	SpiesWin bool
}

// CountGuessVotes tallies yes/no votes. Spies need a strict majority; a tie goes to the players.
func CountGuessVotes(votes map[string]models.GuessVote) GuessTally {
	var tally GuessTally
	for _, v := range votes {
		switch v {
		case models.GuessVoteYes:
			tally.Yes++
		case models.GuessVoteNo:
			tally.No++
		}
	}
	tally.SpiesWin = tally.Yes > tally.No
	return tally
}

// GuessMatches compares a guess to the location ignoring case and surrounding space
func GuessMatches(guess, location string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(location))
}

// GuessOptionCount is how many wrong locations accompany the correct one
const GuessOptionCount = 4

// GuessOptions returns up to GuessOptionCount random wrong locations plus the correct one, shuffled
func GuessOptions(r Rand, locations []string, correct string) []string {
	wrong := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc != correct {
			wrong = append(wrong, loc)
		}
	}

	options := Sample(r, wrong, GuessOptionCount)
	options = append(options, correct)
	Shuffle(r, options)
	return options
}
