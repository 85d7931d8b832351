package hub

import (
	"context"
	"time"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
	"github.com/rs/zerolog/log"
)

const pollTimeout = 10 * time.Second

// Run drives the follower loops until ctx is done. The shared session is read
// every quiz.GamePollInterval. Players are read and idle viewers closed every
// quiz.PlayerPollInterval. Bus pushes are applied as they arrive.
func (h *Hub) Run(ctx context.Context) {
	if h.opts.Bus != nil {
		err := h.opts.Bus.Subscribe(ctx, func(s *quiz.GameSession) {
			select {
			case h.pushes <- s:
			default:
				// The next poll catches up.
				log.Warn().Str("game", s.ID).Msg("push queue full, dropping game event")
			}
		})
		if err != nil {
			log.Error().Err(err).Msg("bus subscription failed, relying on polling")
		}
	}

	games := h.opts.Clock.NewTicker(quiz.GamePollInterval)
	defer games.Stop()
	players := h.opts.Clock.NewTicker(quiz.PlayerPollInterval)
	defer players.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-games.Chan():
			h.PollGame(ctx)
		case <-players.Chan():
			h.CloseIdle()
			h.PollPlayers(ctx)
		case s := <-h.pushes:
			h.reconcileAll(ctx, s)
		}
	}
}

// PollGame reads the shared session once and reconciles every viewer with it.
func (h *Hub) PollGame(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()
	remote, err := h.opts.Games.GetCurrentGame(ctx)
	if err != nil {
		for _, c := range h.clients() {
			c.ReportUnavailable("poll game", err)
		}
		return
	}
	h.reconcileAll(ctx, remote)
}

// PollPlayers refreshes every viewer's ranking.
func (h *Hub) PollPlayers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()
	players, err := h.opts.Players.GetPlayers(ctx)
	if err != nil {
		for _, c := range h.clients() {
			c.ReportUnavailable("poll players", err)
		}
		return
	}
	for _, c := range h.clients() {
		c.UpdateRanking(players)
	}
}

func (h *Hub) reconcileAll(ctx context.Context, remote *quiz.GameSession) {
	if remote == nil {
		return
	}
	for _, c := range h.clients() {
		if err := c.Reconcile(ctx, remote.Clone()); err != nil {
			log.Warn().Err(err).Str("viewer", c.ID()).Str("game", remote.ID).Msg("reconcile failed")
		}
	}
}
