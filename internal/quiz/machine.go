package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type eventKind int

const (
	evStart eventKind = iota
	evTick
	evPause
	evResume
	evNext
	evEnd
	evAdopt
	evAdvance
)

func (k eventKind) String() string {
	return [...]string{"start", "tick", "pause", "resume", "next", "end", "adopt", "advance"}[k]
}

type event struct {
	kind    eventKind
	session *GameSession
	index   int
}

// apply is the single transition function of the viewer. Every timer tick,
// admin action and reconciliation step goes through it. c.mu must be held.
func (c *Client) apply(ctx context.Context, ev event) error {
	now := c.now()
	switch ev.kind {
	case evStart:
		if st := c.status(); st == StatusActive || st == StatusPaused {
			return ErrInvalidState
		}
		c.session = ev.session
		c.durationLeft = ev.session.Duration
		c.openQuestion()
		c.startTicker()
		c.persist(ctx)
		c.announce(ctx, fmt.Sprintf("¡Comienza la trivia! %d preguntas, tienes %d minutos.",
			len(ev.session.Questions), ev.session.Duration/60))
		c.render()

	case evTick:
		if c.status() != StatusActive {
			return nil
		}
		c.durationLeft--
		if c.answersOpen {
			c.questionLeft--
			if c.questionLeft <= 0 {
				c.timeUp()
			}
		}
		if c.durationLeft <= 0 {
			return c.apply(ctx, event{kind: evEnd})
		}

	case evPause:
		if c.status() != StatusActive {
			return ErrInvalidState
		}
		c.stopTicker()
		c.session.Status = StatusPaused
		c.session.PausedAt = &now
		c.persist(ctx)
		c.render()

	case evResume:
		if c.status() != StatusPaused {
			return ErrInvalidState
		}
		// Shift the anchor so Duration - (now - StartTime) still yields the time left.
		if p := c.session.PausedAt; p != nil {
			c.session.StartTime = c.session.StartTime.Add(now.Sub(*p))
		}
		c.session.PausedAt = nil
		c.session.Status = StatusActive
		c.startTicker()
		c.persist(ctx)
		c.render()

	case evNext:
		if c.status() != StatusActive {
			return ErrInvalidState
		}
		if c.session.CurrentIndex+1 >= len(c.session.Questions) {
			return c.apply(ctx, event{kind: evEnd})
		}
		c.session.CurrentIndex++
		c.openQuestion()
		c.persist(ctx)
		c.render()

	case evAdvance:
		if c.status() != StatusActive || ev.index <= c.session.CurrentIndex || ev.index >= len(c.session.Questions) {
			return nil
		}
		c.session.CurrentIndex = ev.index
		c.openQuestion()
		c.render()

	case evEnd:
		if st := c.status(); st != StatusActive && st != StatusPaused {
			return ErrInvalidState
		}
		c.stopTicker()
		c.answersOpen = false
		c.questionLeft = 0
		c.session.Status = StatusEnded
		c.session.PausedAt = nil
		c.session.EndedAt = &now
		c.ended[c.session.ID] = true

		winners := c.podium(ctx)
		c.clearAnswers()
		if c.role == RoleAdmin {
			c.persist(ctx)
			c.announceWinners(ctx, winners)
			c.export(winners, now)
		}
		log.Info().Str("viewer", c.deps.ViewerID).Str("game", c.session.ID).Int("winners", len(winners)).Msg("game ended")
		c.deps.Presenter.Winners(winners)
		c.render()

	case evAdopt:
		s := ev.session
		anchor := now
		if s.Status == StatusPaused && s.PausedAt != nil {
			anchor = *s.PausedAt
		}
		c.session = s
		c.durationLeft = s.Duration - int(anchor.Sub(s.StartTime)/time.Second)
		if c.durationLeft <= 0 {
			// The admin's clock already ran out; never start a fresh countdown.
			c.session.Status = StatusActive
			return c.apply(ctx, event{kind: evEnd})
		}
		c.openQuestion()
		if s.Status == StatusPaused {
			c.render()
			return nil
		}
		s.Status = StatusActive
		c.startTicker()
		c.render()
	}
	return nil
}

// openQuestion resets the per-question countdown for the current question.
func (c *Client) openQuestion() {
	q := c.session.Current()
	if q == nil {
		c.answersOpen = false
		c.questionLeft = 0
		return
	}
	c.questionLeft = q.TimeLimit
	c.answersOpen = true
	if p := c.player(); p != nil {
		if st, err := c.ledger.Get(q.ID, p.ID); err == nil && st != AnswerUnanswered {
			c.answersOpen = false
		}
	}
	shown := *q
	if c.role != RoleAdmin {
		shown.Correct = -1
	}
	c.deps.Presenter.Question(shown, c.questionLeft)
}

func (c *Client) timeUp() {
	c.answersOpen = false
	c.questionLeft = 0
	q := c.session.Current()
	if q == nil {
		return
	}
	if p := c.player(); p != nil {
		if err := c.ledger.Record(q.ID, p.ID, AnswerTimeout); err != nil && !errors.Is(err, ErrAlreadyAnswered) {
			log.Error().Err(err).Str("viewer", c.deps.ViewerID).Str("question", q.ID).Msg("failed to record timeout")
		}
	}
	c.deps.Presenter.TimeUp(q.ID)
}

// persist publishes the session. Followers never write.
func (c *Client) persist(ctx context.Context) {
	if c.role != RoleAdmin || c.session == nil {
		return
	}
	if err := c.deps.Games.SaveCurrentGame(ctx, c.session.Clone()); err != nil {
		c.collaboratorFailed("save game", err)
		return
	}
	c.collaboratorOK()
}

func (c *Client) announce(ctx context.Context, text string) {
	if c.deps.Chat == nil {
		return
	}
	if err := c.deps.Chat.SendChatMessage(ctx, text, MessageSystem); err != nil {
		c.collaboratorFailed("chat", err)
	}
}

func (c *Client) announceWinners(ctx context.Context, winners []Player) {
	if len(winners) == 0 {
		c.announce(ctx, "¡Terminó la trivia! Esta vez no hubo ganadores.")
		return
	}
	names := make([]string, len(winners))
	for i, p := range winners {
		names[i] = fmt.Sprintf("%d. %s (%d)", i+1, p.Name, p.Points)
	}
	c.announce(ctx, "¡Terminó la trivia! Ganadores: "+strings.Join(names, ", "))
}

// podium ranks the players and saves the top three locally.
func (c *Client) podium(ctx context.Context) []Player {
	players, err := c.deps.Players.GetPlayers(ctx)
	if err != nil {
		c.collaboratorFailed("get players", err)
		players = nil
		if p := c.player(); p != nil {
			players = []Player{*p}
		}
	}
	top := TopWinners(CalculateWinners(players), PodiumSize)
	if err := setJSON(c.deps.Local, keyWinners, top); err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to save winners")
	}
	return top
}

func (c *Client) clearAnswers() {
	p := c.player()
	if p == nil || c.session == nil {
		return
	}
	ids := make([]string, len(c.session.Questions))
	for i, q := range c.session.Questions {
		ids[i] = q.ID
	}
	if err := c.ledger.Clear(p.ID, ids); err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to clear answers")
	}
}

func (c *Client) export(winners []Player, at time.Time) {
	if c.deps.ExportFile == "" {
		return
	}
	if err := ExportResults(c.deps.ExportFile, c.session, winners, at); err != nil {
		log.Error().Err(err).Str("file", c.deps.ExportFile).Msg("failed to export results")
		return
	}
	log.Info().Str("game", c.session.ID).Str("file", c.deps.ExportFile).Msg("exported results")
}
