package quiz

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Tick advances the duration and question countdowns by one second.
func (c *Client) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

// tickLocked never lets a failure escape into the ticker goroutine.
func (c *Client) tickLocked() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("viewer", c.deps.ViewerID).Msg("tick panicked")
		}
	}()
	if c.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
	defer cancel()
	if err := c.apply(ctx, event{kind: evTick}); err != nil {
		log.Warn().Err(err).Str("viewer", c.deps.ViewerID).Stringer("event", evTick).Msg("tick skipped")
	}
}

// startTicker replaces any running ticker with a fresh one-second ticker.
// One ticker drives both countdowns.
func (c *Client) startTicker() {
	c.stopTicker()
	c.ticking = true
	if c.deps.ManualTicks {
		return
	}
	stop := make(chan struct{})
	c.stopTick = stop
	gen := c.tickGen
	ticker := c.deps.Clock.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				c.mu.Lock()
				// A tick that raced with stopTicker belongs to a dead generation.
				if gen == c.tickGen {
					c.tickLocked()
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *Client) stopTicker() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	c.tickGen++
	c.ticking = false
}
