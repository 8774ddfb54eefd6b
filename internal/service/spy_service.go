package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"partyrooms/internal/content"
	"partyrooms/internal/game"
	"partyrooms/internal/models"
	"partyrooms/internal/notify"
	"partyrooms/internal/store"
	"partyrooms/internal/utils"

	"github.com/rs/zerolog/log"
)

// ReadyToStartResult reports the lobby gate after a player declared ready
type ReadyToStartResult struct {
	ReadyPlayers []string        `json:"readyPlayers"`
	Started      bool            `json:"started"`
	Game         *models.SpyGame `json:"-"`
}

// SpyService runs Spy sessions. Every state change goes through a single
// compare-and-swap on the session record, so each tally runs exactly once.
type SpyService struct {
	store    store.Store
	notifier notify.Notifier
	content  *content.Tables
	rand     game.Rand
	opts     Options
	now      func() time.Time
}

// NewSpyService creates a new Spy service
func NewSpyService(s store.Store, n notify.Notifier, tables *content.Tables, r game.Rand, opts Options) *SpyService {
	return &SpyService{
		store:    s,
		notifier: n,
		content:  tables,
		rand:     r,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *SpyService) gameKey(code string) string {
	return store.GameKey(models.GameSpy, code)
}

// update runs mutate on the stored game under compare-and-swap and publishes
// the collected events once the write has landed
func (s *SpyService) update(ctx context.Context, code string, mutate func(g *models.SpyGame, out *outbox) error) (*models.SpyGame, error) {
	var out outbox
	g, err := store.Update(ctx, s.store, s.gameKey(code), s.opts.GameTTL, s.opts.CASRetries,
		func(g *models.SpyGame, exists bool) error {
			out.reset()
			if !exists {
				return ErrGameNotFound
			}
			return mutate(g, &out)
		})
	if err != nil {
		return nil, err
	}

	out.flush(ctx, s.notifier, code)
	return &g, nil
}

func (s *SpyService) load(ctx context.Context, code string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	var g models.SpyGame
	version, err := store.GetJSON(ctx, s.store, s.gameKey(code), &g)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, ErrGameNotFound
	}
	return &g, nil
}

func (s *SpyService) roster(ctx context.Context, code string) ([]models.Player, error) {
	var roster models.Roster
	if _, err := store.GetJSON(ctx, s.store, store.RoomPlayersKey(code), &roster); err != nil {
		return nil, err
	}
	return roster.Players, nil
}

// ReadyToStart marks a room member ready. Once every member of a room of at
// least three is ready the game starts.
func (s *SpyService) ReadyToStart(ctx context.Context, code, playerID string) (*ReadyToStartResult, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := utils.RequireField("playerId", playerID); err != nil {
		return nil, err
	}

	players, err := s.roster(ctx, code)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(players, func(p models.Player) bool { return p.ID == playerID }) {
		return nil, ErrNotRoomMember
	}

	var ready []string
	complete := false
	_, err = store.Update(ctx, s.store, store.SpyReadyToStartKey(code), s.opts.GameTTL, s.opts.CASRetries,
		func(list *[]string, exists bool) error {
			complete = false
			if !slices.Contains(*list, playerID) {
				*list = append(*list, playerID)
			}
			ready = slices.Clone(*list)

			// Only the write that completes the set triggers the start; it also resets the gate
			if len(*list) == len(players) && len(players) >= models.MinSpyPlayers {
				complete = true
				*list = []string{}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.notifier, code, models.EventSpyReadyToStart, models.SpyReadyEvent{RoomCode: code, PlayerID: playerID, ReadyPlayers: ready})

	result := &ReadyToStartResult{ReadyPlayers: ready}
	if complete {
		g, err := s.Start(ctx, code)
		if err != nil {
			return nil, err
		}
		result.Started = true
		result.Game = g
	}
	return result, nil
}

// Start deals a new game to the room's current players
func (s *SpyService) Start(ctx context.Context, code string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	players, err := s.roster(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(players) < models.MinSpyPlayers {
		return nil, utils.ValidationError{Field: "players", Message: "at least 3 players are needed to play Spy"}
	}

	location, ok := game.Pick(s.rand, s.content.Locations)
	if !ok {
		return nil, errors.New("no locations available")
	}

	spies := game.Sample(s.rand, players, game.SpyCount(len(players)))
	spyIDs := make([]string, 0, len(spies))
	for _, p := range spies {
		spyIDs = append(spyIDs, p.ID)
	}

	g := &models.SpyGame{
		Players:           players,
		Location:          location,
		SpyIDs:            spyIDs,
		Status:            models.SpyStatusCardReveal,
		EliminatedPlayers: []string{},
		StartedAt:         s.now().UTC(),
	}
	g.ResetRound()

	if _, err := store.PutJSON(ctx, s.store, s.gameKey(code), g, s.opts.GameTTL); err != nil {
		return nil, err
	}
	if err := s.store.Forget(ctx, store.SpyReadyToStartKey(code)); err != nil {
		return nil, err
	}

	log.Info().Str("room", code).Int("players", len(players)).Int("spies", len(spyIDs)).Msg("Spy game started")
	publish(ctx, s.notifier, code, models.EventSpyGameStarted, models.SpyGameStartedEvent{RoomCode: code, GameData: g.PublicState()})
	return g, nil
}

func requireActive(g *models.SpyGame, playerID string, eliminatedErr error) error {
	if _, ok := g.FindPlayer(playerID); !ok {
		return ErrPlayerNotFound
	}
	if g.IsEliminated(playerID) {
		return eliminatedErr
	}
	return nil
}

func startVoting(code string, g *models.SpyGame, out *outbox) {
	g.Status = models.SpyStatusVoting
	g.ResetRound()
	out.add(models.EventSpyVotingStarted, models.SpyVotingStartedEvent{RoomCode: code, ActivePlayers: g.ActivePlayers()})
}

// ReadyToVote marks an active player ready to vote. The first one ends card
// reveal; the last one opens voting.
func (s *SpyService) ReadyToVote(ctx context.Context, code, playerID string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := utils.RequireField("playerId", playerID); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(g *models.SpyGame, out *outbox) error {
		if err := requireActive(g, playerID, ErrPlayerEliminated); err != nil {
			return err
		}
		if g.Status != models.SpyStatusCardReveal && g.Status != models.SpyStatusPlaying {
			return ErrWrongPhase
		}

		if g.Status == models.SpyStatusPlaying && slices.Contains(g.ReadyToVote, playerID) {
			return store.ErrSkipWrite
		}
		g.Status = models.SpyStatusPlaying
		if !slices.Contains(g.ReadyToVote, playerID) {
			g.ReadyToVote = append(g.ReadyToVote, playerID)
		}
		out.add(models.EventSpyReadyToVote, models.SpyReadyEvent{RoomCode: code, PlayerID: playerID, ReadyPlayers: slices.Clone(g.ReadyToVote)})

		if allReady(g) {
			startVoting(code, g, out)
		}
		return nil
	})
}

// StartVoting opens voting without waiting for everyone to be ready
func (s *SpyService) StartVoting(ctx context.Context, code string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(g *models.SpyGame, out *outbox) error {
		if g.Status != models.SpyStatusCardReveal && g.Status != models.SpyStatusPlaying {
			return ErrWrongPhase
		}
		startVoting(code, g, out)
		return nil
	})
}

func allIn(players []models.Player, done func(id string) bool) bool {
	for _, p := range players {
		if !done(p.ID) {
			return false
		}
	}
	return true
}

func allReady(g *models.SpyGame) bool {
	return allIn(g.PresentPlayers(), func(id string) bool { return slices.Contains(g.ReadyToVote, id) })
}

func allVoted(g *models.SpyGame) bool {
	return allIn(g.PresentPlayers(), func(id string) bool { _, ok := g.Votes[id]; return ok })
}

func allGuessVotesIn(g *models.SpyGame) bool {
	return allIn(guessVoters(g), func(id string) bool { _, ok := g.SpyGuess.Votes[id]; return ok })
}

// settleAfterDeparture finishes a round that was only waiting on players who left.
// Rounds nobody has acted in yet stay open.
func settleAfterDeparture(code string, g *models.SpyGame, out *outbox) {
	switch g.Status {
	case models.SpyStatusPlaying:
		if len(g.ReadyToVote) > 0 && allReady(g) {
			startVoting(code, g, out)
		}
	case models.SpyStatusVoting:
		if len(g.Votes) > 0 && allVoted(g) {
			tallyVotes(code, g, out)
		}
	case models.SpyStatusGuessing:
		if g.SpyGuess != nil && g.SpyGuess.Result == nil && len(g.SpyGuess.Votes) > 0 && allGuessVotesIn(g) {
			resolveGuess(code, g, out)
		}
	}
}

// SubmitVote records voterID's vote for targetID. A repeated vote replaces the
// earlier one. The vote that completes the round runs the tally.
func (s *SpyService) SubmitVote(ctx context.Context, code, voterID, targetID string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := utils.RequireField("playerId", voterID); err != nil {
		return nil, err
	}
	if err := utils.RequireField("votedForId", targetID); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(g *models.SpyGame, out *outbox) error {
		if err := requireActive(g, voterID, ErrPlayerEliminated); err != nil {
			return err
		}
		if err := requireActive(g, targetID, ErrTargetEliminated); err != nil {
			return err
		}
		if g.Status != models.SpyStatusVoting {
			return ErrWrongPhase
		}

		if g.Votes == nil {
			g.Votes = make(map[string]string)
		}
		g.Votes[voterID] = targetID
		out.add(models.EventSpyVoteSubmitted, models.SpyVoteSubmittedEvent{
			RoomCode:     code,
			PlayerID:     voterID,
			PlayerName:   g.PlayerName(voterID),
			VotedForID:   targetID,
			VotedForName: g.PlayerName(targetID),
		})

		if allVoted(g) {
			tallyVotes(code, g, out)
		}
		return nil
	})
}

// tallyVotes settles a completed voting round
func tallyVotes(code string, g *models.SpyGame, out *outbox) {
	t := game.CountVotes(g.Votes, g.IsActive)
	results := &models.SpyResults{
		VoteCounts:       t.Counts,
		ActiveVoteCounts: t.ActiveCounts,
		MaxVotes:         t.MaxVotes,
		Location:         g.Location,
		SpyIDs:           slices.Clone(g.SpyIDs),
	}
	g.Results = results

	eliminated, ok := t.Eliminated()
	if !ok {
		results.IsTie = true
		if len(g.ActivePlayers()) <= 2 {
			g.Status = models.SpyStatusEnded
			results.GameEnded = true
			results.GameEndReason = models.EndReasonTie
			out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: results})
			log.Info().Str("room", code).Msg("Spy game ended in a tie")
			return
		}

		g.Status = models.SpyStatusPlaying
		g.ResetRound()
		results.ContinueGame = true
		out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: results.Redacted()})
		out.add(models.EventSpyGameContinue, models.SpyGameContinueEvent{RoomCode: code, ActivePlayers: g.ActivePlayers()})
		return
	}

	g.EliminatedPlayers = append(g.EliminatedPlayers, eliminated)
	results.MostVotedID = eliminated
	results.EliminatedPlayerID = eliminated
	results.IsSpy = g.IsSpy(eliminated)
	out.add(models.EventPlayerEliminated, models.PlayerEliminatedEvent{RoomCode: code, PlayerID: eliminated})

	if results.IsSpy {
		// The eliminated spy gets one guess at the location before the game can end
		g.Status = models.SpyStatusResults
		g.SpyGuess = nil
		results.ContinueGame = true
		results.AwaitingGuess = true
		out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: results.Redacted()})
		return
	}

	if endIfDecided(code, g, out) {
		return
	}

	g.Status = models.SpyStatusPlaying
	g.ResetRound()
	results.ContinueGame = true
	out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: results.Redacted()})
	out.add(models.EventSpyGameContinue, models.SpyGameContinueEvent{RoomCode: code, ActivePlayers: g.ActivePlayers()})
}

// endIfDecided ends the game when no spies or too few players remain
func endIfDecided(code string, g *models.SpyGame, out *outbox) bool {
	ended, reason := game.EndCheck(len(g.ActiveSpyIDs()), len(g.ActivePlayers()))
	if !ended {
		return false
	}

	g.Status = models.SpyStatusEnded
	if g.Results == nil {
		g.Results = &models.SpyResults{Location: g.Location, SpyIDs: slices.Clone(g.SpyIDs)}
	}
	g.Results.GameEnded = true
	g.Results.GameEndReason = reason
	g.Results.ContinueGame = false
	g.Results.AwaitingGuess = false
	out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: g.Results})

	log.Info().Str("room", code).Str("reason", string(reason)).Msg("Spy game ended")
	return true
}

// SubmitGuess records the just-eliminated spy's guess at the location and opens the vote on it.
// Until that vote resolves the spy may guess again, which discards the votes cast so far.
func (s *SpyService) SubmitGuess(ctx context.Context, code, playerID, guessedWord string) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := utils.RequireField("playerId", playerID); err != nil {
		return nil, err
	}
	guessedWord = strings.TrimSpace(guessedWord)
	if err := utils.RequireField("guessedWord", guessedWord); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(g *models.SpyGame, out *outbox) error {
		if _, ok := g.FindPlayer(playerID); !ok {
			return ErrPlayerNotFound
		}
		last, ok := g.LastEliminated()
		if !ok || last != playerID || !g.IsSpy(playerID) {
			return ErrNotGuessingSpy
		}
		switch {
		case g.Status == models.SpyStatusResults && g.Results != nil && g.Results.AwaitingGuess:
		case g.Status == models.SpyStatusGuessing && g.SpyGuess != nil && g.SpyGuess.Result == nil:
		default:
			return ErrWrongPhase
		}

		g.Status = models.SpyStatusGuessing
		g.SpyGuess = &models.SpyGuess{
			PlayerID:    playerID,
			GuessedWord: guessedWord,
			Votes:       map[string]models.GuessVote{},
		}
		out.add(models.EventSpyGuessSubmitted, models.SpyGuessSubmittedEvent{RoomCode: code, PlayerID: playerID, GuessedWord: guessedWord})

		if len(guessVoters(g)) == 0 {
			resolveGuess(code, g, out)
		}
		return nil
	})
}

// guessVoters are the present players other than the guessing spy
func guessVoters(g *models.SpyGame) []models.Player {
	voters := g.PresentPlayers()
	if g.SpyGuess != nil {
		voters = slices.DeleteFunc(voters, func(p models.Player) bool { return p.ID == g.SpyGuess.PlayerID })
	}
	return voters
}

// VoteOnGuess records whether voterID accepts the spy's guess
func (s *SpyService) VoteOnGuess(ctx context.Context, code, voterID string, vote models.GuessVote) (*models.SpyGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := utils.RequireField("playerId", voterID); err != nil {
		return nil, err
	}
	if !vote.IsValid() {
		return nil, utils.ValidationError{Field: "vote", Message: "vote must be yes or no"}
	}

	return s.update(ctx, code, func(g *models.SpyGame, out *outbox) error {
		if err := requireActive(g, voterID, ErrPlayerEliminated); err != nil {
			return err
		}
		if g.Status != models.SpyStatusGuessing || g.SpyGuess == nil {
			return ErrWrongPhase
		}
		if g.SpyGuess.Votes == nil {
			g.SpyGuess.Votes = make(map[string]models.GuessVote)
		}
		g.SpyGuess.Votes[voterID] = vote
		out.add(models.EventSpyGuessVoteSubmitted, models.SpyGuessVoteSubmittedEvent{RoomCode: code, PlayerID: voterID, Vote: vote})

		if allGuessVotesIn(g) {
			resolveGuess(code, g, out)
		}
		return nil
	})
}

// resolveGuess settles the vote on the spy's guess
func resolveGuess(code string, g *models.SpyGame, out *outbox) {
	t := game.CountGuessVotes(g.SpyGuess.Votes)
	result := &models.GuessResult{
		GuessedWord:     g.SpyGuess.GuessedWord,
		Location:        g.Location,
		MatchesLocation: game.GuessMatches(g.SpyGuess.GuessedWord, g.Location),
		YesVotes:        t.Yes,
		NoVotes:         t.No,
		SpiesWin:        t.SpiesWin,
	}
	g.SpyGuess.AllVoted = true
	g.SpyGuess.Result = result
	out.add(models.EventSpyGuessResult, models.SpyGuessResultEvent{RoomCode: code, Result: result})

	if t.SpiesWin {
		g.Status = models.SpyStatusEnded
		if g.Results == nil {
			g.Results = &models.SpyResults{}
		}
		g.Results.Location = g.Location
		g.Results.SpyIDs = slices.Clone(g.SpyIDs)
		g.Results.GameEnded = true
		g.Results.GameEndReason = models.EndReasonSpiesGuessed
		g.Results.ContinueGame = false
		g.Results.AwaitingGuess = false
		out.add(models.EventSpyResultsReady, models.SpyResultsReadyEvent{RoomCode: code, Results: g.Results})
		log.Info().Str("room", code).Msg("Spy game ended, spies guessed the location")
		return
	}

	if endIfDecided(code, g, out) {
		return
	}

	g.Status = models.SpyStatusPlaying
	g.ResetRound()
	g.Results = nil
	g.SpyGuess = nil
	out.add(models.EventSpyGameContinue, models.SpyGameContinueEvent{RoomCode: code, ActivePlayers: g.ActivePlayers()})
}

// GetState returns the full stored session
func (s *SpyService) GetState(ctx context.Context, code string) (*models.SpyGame, error) {
	return s.load(ctx, code)
}

// PlayerView returns what playerID is allowed to see
func (s *SpyService) PlayerView(ctx context.Context, code, playerID string) (*models.SpyPlayerView, error) {
	if err := utils.RequireField("playerId", playerID); err != nil {
		return nil, err
	}
	g, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, ok := g.FindPlayer(playerID); !ok {
		return nil, ErrPlayerNotFound
	}

	view := &models.SpyPlayerView{
		Role:          models.RolePlayer,
		GameStatus:    g.Status,
		Players:       g.ActivePlayers(),
		ReadyToVote:   g.ReadyToVote,
		Results:       g.Results.Redacted(),
		IsEliminated:  g.IsEliminated(playerID),
		EliminatedIDs: g.EliminatedPlayers,
	}
	if g.IsSpy(playerID) {
		view.Role = models.RoleSpy
	} else {
		location := g.Location
		view.Location = &location
	}

	last, ok := g.LastEliminated()
	view.CanGuess = ok && last == playerID && g.IsSpy(playerID) &&
		g.Status == models.SpyStatusResults && g.Results != nil && g.Results.AwaitingGuess

	return view, nil
}

// GuessStatus returns the state of the guess vote
func (s *SpyService) GuessStatus(ctx context.Context, code string) (*models.GuessStatus, error) {
	g, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if g.SpyGuess == nil {
		return &models.GuessStatus{Votes: map[string]models.GuessVote{}}, nil
	}
	return &models.GuessStatus{
		PlayerID:    g.SpyGuess.PlayerID,
		GuessedWord: g.SpyGuess.GuessedWord,
		Votes:       g.SpyGuess.Votes,
		AllVoted:    g.SpyGuess.AllVoted,
		Result:      g.SpyGuess.Result,
	}, nil
}

// GuessOptions returns four wrong locations and the right one, shuffled
func (s *SpyService) GuessOptions(ctx context.Context, code string) ([]string, error) {
	g, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return game.GuessOptions(s.rand, s.content.Locations, g.Location), nil
}
