package quiz

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	displayNameRe = regexp.MustCompile(`^[\p{L}\p{N} ._-]+$`)
	phoneRe       = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
		return displayNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(phoneStripper.Replace(fl.Field().String()))
	})
	return v
}

type RegistrationInput struct {
	Name  string `json:"name" validate:"required,min=2,max=20,displayname"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (in *RegistrationInput) normalize() {
	in.Name = strings.Join(strings.Fields(in.Name), " ")
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in RegistrationInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Name":
			return validationf("el nombre debe tener entre 2 y 20 letras o números")
		case "Phone":
			return validationf("el teléfono no es válido")
		case "Email":
			return validationf("el correo no es válido")
		}
	}
	return validationf("%v", err)
}

// CurrentPlayer returns the player registered in this viewer, or nil.
func (c *Client) CurrentPlayer() *Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player()
}

// Register creates a player identity for this viewer. A name held by a player
// active within the activity window yields a *NameTakenError.
func (c *Client) Register(ctx context.Context, in RegistrationInput) (Player, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Player{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	players, err := c.deps.Players.GetPlayers(ctx)
	if err != nil {
		c.collaboratorFailed("get players", err)
		players = nil
	}
	for i := range players {
		p := players[i]
		if strings.EqualFold(p.Name, in.Name) && c.isActive(p.LastActive, now) {
			return Player{}, &NameTakenError{Name: in.Name, Existing: &p}
		}
	}
	recent := c.recentNames()
	if t, ok := recent[strings.ToLower(in.Name)]; ok && c.isActive(t, now) {
		taken := &NameTakenError{Name: in.Name}
		if lp := c.player(); lp != nil && strings.EqualFold(lp.Name, in.Name) {
			taken.Existing = lp
		}
		return Player{}, taken
	}

	p := Player{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Phone:      in.Phone,
		Email:      in.Email,
		CreatedAt:  now,
		LastActive: now,
	}
	saved, err := c.deps.Players.SavePlayer(ctx, p)
	if err != nil {
		c.collaboratorFailed("save player", err)
		saved = p
	}
	c.savePlayer(saved)
	c.rememberName(recent, saved.Name, now)
	c.greet(ctx, saved.Name)
	log.Info().Str("viewer", c.deps.ViewerID).Str("player", saved.ID).Str("name", saved.Name).Msg("player registered")
	c.render()
	return saved, nil
}

// MergeIdentity makes an existing player this viewer's player, the way out of
// a name collision.
func (c *Client) MergeIdentity(ctx context.Context, playerID string) (Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	players, err := c.deps.Players.GetPlayers(ctx)
	if err != nil {
		c.collaboratorFailed("get players", err)
		return Player{}, err
	}
	var found *Player
	for i := range players {
		if players[i].ID == playerID {
			found = &players[i]
			break
		}
	}
	if found == nil {
		return Player{}, ErrUnknownPlayer
	}
	c.savePlayer(*found)
	c.touch(ctx, found)
	c.rememberName(c.recentNames(), found.Name, c.now())
	log.Info().Str("viewer", c.deps.ViewerID).Str("player", found.ID).Msg("player identity merged")
	c.render()
	return *found, nil
}

func (c *Client) greet(ctx context.Context, name string) {
	if c.deps.Chat == nil {
		return
	}
	if err := c.deps.Chat.SendChatMessage(ctx, fmt.Sprintf("¡Te damos la bienvenida, %s!", name), MessageGreeting); err != nil {
		c.collaboratorFailed("chat", err)
	}
}

// Touch marks the local player as active now.
func (c *Client) Touch(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.player(); p != nil {
		c.touch(ctx, p)
	}
}

func (c *Client) touch(ctx context.Context, p *Player) {
	p.LastActive = c.now()
	c.savePlayer(*p)
	if _, err := c.deps.Players.SavePlayer(ctx, *p); err != nil {
		c.collaboratorFailed("touch player", err)
	}
}

func (c *Client) isActive(lastActive, now time.Time) bool {
	return now.Sub(lastActive) < c.deps.ActiveWindow
}

// recentNames maps lowercased display names to when this viewer last used them.
func (c *Client) recentNames() map[string]time.Time {
	names := make(map[string]time.Time)
	if _, err := getJSON(c.deps.Local, keyRecentNames, &names); err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to read recent names")
	}
	return names
}

func (c *Client) rememberName(names map[string]time.Time, name string, now time.Time) {
	for n, t := range names {
		if !c.isActive(t, now) {
			delete(names, n)
		}
	}
	names[strings.ToLower(name)] = now
	if err := setJSON(c.deps.Local, keyRecentNames, names); err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to save recent names")
	}
}
