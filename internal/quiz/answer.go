package quiz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SubmitAnswer records the local player's answer to a question of the active
// session. Each (question, player) pair scores at most once.
func (c *Client) SubmitAnswer(ctx context.Context, questionID string, answerIndex int) (SubmitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.player()
	if p == nil {
		return SubmitResult{}, ErrNotRegistered
	}
	if c.status() != StatusActive {
		return SubmitResult{}, ErrNoActiveGame
	}
	st, err := c.ledger.Get(questionID, p.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	if st != AnswerUnanswered {
		return SubmitResult{}, ErrAlreadyAnswered
	}
	idx, q := c.session.question(questionID)
	if q == nil {
		return SubmitResult{}, ErrUnknownQuestion
	}
	if idx != c.session.CurrentIndex || !c.answersOpen {
		return SubmitResult{}, ErrQuestionClosed
	}
	if answerIndex < 0 || answerIndex >= len(q.Answers) {
		return SubmitResult{}, validationf("answer index %d out of range", answerIndex)
	}

	res := SubmitResult{Accepted: true}
	if answerIndex == q.Correct {
		if err := c.ledger.Record(q.ID, p.ID, AnswerCorrect); err != nil {
			return SubmitResult{}, err
		}
		res.Correct = true
		res.PointsAwarded = q.Points

		if err := c.deps.Players.UpdatePlayerScore(ctx, p.ID, q.Points); err != nil {
			c.collaboratorFailed("update score", err)
		}
		p.Points += q.Points
		p.GamesPlayed++
		p.LastActive = c.now()
		c.savePlayer(*p)
		c.announce(ctx, fmt.Sprintf("¡%s respondió correctamente la pregunta %d! +%d puntos", p.Name, q.Rank, q.Points))
	} else {
		if err := c.ledger.Record(q.ID, p.ID, AnswerIncorrect); err != nil {
			return SubmitResult{}, err
		}
		correct := q.Correct
		res.CorrectIndex = &correct
	}

	// This viewer is done with the question; its countdown stops here.
	c.answersOpen = false
	c.touch(ctx, p)

	log.Info().
		Str("viewer", c.deps.ViewerID).
		Str("player", p.ID).
		Str("question", q.ID).
		Bool("correct", res.Correct).
		Int("points", res.PointsAwarded).
		Msg("answer submitted")
	c.deps.Presenter.AnswerResult(q.ID, res)
	return res, nil
}
