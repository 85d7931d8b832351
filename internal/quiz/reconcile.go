package quiz

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Reconcile brings a follower's local game in line with the remote session.
// Only active and ended remote states cause transitions; a paused remote
// session is never adopted. An active remote session with a different ID
// supersedes the local one. Admin viewers ignore remote state.
func (c *Client) Reconcile(ctx context.Context, remote *GameSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.role == RoleAdmin {
		return nil
	}
	c.collaboratorOK()
	if remote == nil {
		return nil
	}

	local := c.status()
	switch remote.Status {
	case StatusActive:
		if local != StatusActive {
			if c.ended[remote.ID] {
				return nil
			}
			log.Info().Str("viewer", c.deps.ViewerID).Str("game", remote.ID).Msg("adopting remote game")
			return c.apply(ctx, event{kind: evAdopt, session: remote.Clone()})
		}
		if c.session.ID != remote.ID {
			if c.ended[remote.ID] {
				return nil
			}
			// The admin moved on to a new game between two polls.
			log.Info().Str("viewer", c.deps.ViewerID).Str("game", c.session.ID).Str("remote", remote.ID).Msg("local game superseded")
			if err := c.apply(ctx, event{kind: evEnd}); err != nil {
				return err
			}
			return c.apply(ctx, event{kind: evAdopt, session: remote.Clone()})
		}
		if remote.CurrentIndex > c.session.CurrentIndex {
			return c.apply(ctx, event{kind: evAdvance, index: remote.CurrentIndex})
		}
	case StatusEnded:
		if local == StatusActive {
			log.Info().Str("viewer", c.deps.ViewerID).Str("game", remote.ID).Msg("remote game ended")
			return c.apply(ctx, event{kind: evEnd})
		}
	}
	return nil
}

// Poll fetches the shared session once and reconciles with it.
func (c *Client) Poll(ctx context.Context) error {
	remote, err := c.deps.Games.GetCurrentGame(ctx)
	if err != nil {
		c.ReportUnavailable("poll game", err)
		return err
	}
	return c.Reconcile(ctx, remote)
}
