package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Role string

const (
	RoleFollower Role = "follower"
	RoleAdmin    Role = "admin"
)

const (
	DefaultActiveWindow = 30 * time.Minute
	GamePollInterval    = 5 * time.Second
	PlayerPollInterval  = 10 * time.Second
	collaboratorTimeout = 10 * time.Second
)

// Deps are the collaborators of one viewer. Games, Players and Local are required.
type Deps struct {
	ViewerID     string
	Games        GameStore
	Players      PlayerStore
	Local        LocalState
	Chat         Chat
	Auth         Authenticator
	Presenter    Presenter
	Bank         Bank
	Clock        clockwork.Clock
	Rand         *rand.Rand
	ActiveWindow time.Duration
	ExportFile   string
	// ManualTicks leaves the countdowns to explicit Tick calls.
	ManualTicks bool
}

// Client is one viewing context: a browser tab's view of the game, its local
// player and its local timers. Admin clients author the shared session;
// follower clients only reconcile from it.
type Client struct {
	deps   Deps
	ledger *Ledger

	mu           sync.Mutex
	role         Role
	adminName    string
	session      *GameSession
	durationLeft int
	questionLeft int
	answersOpen  bool
	ended        map[string]bool // sessions this viewer already ended
	degraded     bool
	closed       bool

	tickGen  int
	stopTick chan struct{}
	ticking  bool
}

func NewClient(deps Deps) *Client {
	if deps.ViewerID == "" {
		deps.ViewerID = uuid.NewString()
	}
	if deps.Presenter == nil {
		deps.Presenter = NopPresenter{}
	}
	if deps.Bank == nil {
		deps.Bank = DefaultBank()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.ActiveWindow <= 0 {
		deps.ActiveWindow = DefaultActiveWindow
	}
	return &Client{
		deps:   deps,
		ledger: NewLedger(deps.Local),
		role:   RoleFollower,
		ended:  make(map[string]bool),
	}
}

func (c *Client) ID() string { return c.deps.ViewerID }

func (c *Client) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *Client) AdminName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adminName
}

func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Session returns a copy of the local session, or nil when idle.
func (c *Client) Session() *GameSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

func (c *Client) LoginAdmin(ctx context.Context, email, password string) (string, error) {
	if c.deps.Auth == nil {
		return "", ErrUnauthorized
	}
	name, err := c.deps.Auth.LoginAdmin(ctx, email, password)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			c.collaboratorFailed("login", err)
		}
		return "", err
	}
	c.role = RoleAdmin
	c.adminName = name
	log.Info().Str("viewer", c.deps.ViewerID).Str("admin", name).Msg("admin logged in")

	// Take back control of a session started from another tab.
	if st := c.status(); st == StatusIdle || st == StatusEnded {
		remote, err := c.deps.Games.GetCurrentGame(ctx)
		switch {
		case err != nil:
			c.collaboratorFailed("load game", err)
		case remote != nil && (remote.Status == StatusActive || remote.Status == StatusPaused):
			if err := c.apply(ctx, event{kind: evAdopt, session: remote.Clone()}); err != nil {
				log.Warn().Err(err).Str("viewer", c.deps.ViewerID).Msg("could not resume session")
			}
		}
	}
	c.render()
	return name, nil
}

func (c *Client) StartGame(ctx context.Context, in GameConfigInput) (*GameSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	cfg, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	if st := c.status(); st == StatusActive || st == StatusPaused {
		return nil, ErrInvalidState
	}

	gameType, _ := c.deps.Bank.Catalog(cfg.GameType)
	qs := c.deps.Bank.Select(gameType, cfg.TotalQuestions, cfg.Difficulty, cfg.QuestionTime, c.deps.Rand)
	if len(qs) == 0 {
		return nil, validationf("no questions available for %q", gameType)
	}
	for i := range qs {
		if qs[i].Points <= 0 {
			qs[i].Points = cfg.BasePoints
		}
	}
	s := &GameSession{
		ID:           uuid.NewString(),
		GameType:     gameType,
		Duration:     cfg.Duration,
		QuestionTime: cfg.QuestionTime,
		Questions:    qs,
		StartTime:    c.now(),
		Status:       StatusActive,
		Settings: Settings{
			Difficulty:     cfg.Difficulty,
			BasePoints:     cfg.BasePoints,
			TotalQuestions: cfg.TotalQuestions,
		},
	}
	if err := c.apply(ctx, event{kind: evStart, session: s}); err != nil {
		return nil, err
	}
	log.Info().Str("viewer", c.deps.ViewerID).Str("game", s.ID).Str("type", gameType).Int("questions", len(qs)).Msg("game started")
	return s.Clone(), nil
}

func (c *Client) PauseGame(ctx context.Context) error {
	return c.adminEvent(ctx, event{kind: evPause})
}

func (c *Client) ResumeGame(ctx context.Context) error {
	return c.adminEvent(ctx, event{kind: evResume})
}

func (c *Client) NextQuestion(ctx context.Context) error {
	return c.adminEvent(ctx, event{kind: evNext})
}

func (c *Client) EndGame(ctx context.Context) error {
	return c.adminEvent(ctx, event{kind: evEnd})
}

func (c *Client) adminEvent(ctx context.Context, ev event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role != RoleAdmin {
		return ErrNotAdmin
	}
	return c.apply(ctx, ev)
}

// LastWinners returns the podium saved when this viewer last saw a game end.
func (c *Client) LastWinners() ([]Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var top []Player
	if _, err := getJSON(c.deps.Local, keyWinners, &top); err != nil {
		return nil, err
	}
	return top, nil
}

// UpdateRanking pushes a fresh ranking to the presenter.
func (c *Client) UpdateRanking(players []Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.deps.Presenter.Ranking(CalculateWinners(players))
}

// ReportUnavailable switches the viewer to local-only mode after a failed
// collaborator call made on its behalf.
func (c *Client) ReportUnavailable(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collaboratorFailed(op, err)
}

// Close stops the viewer's timers. The client must not be used afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTicker()
	c.closed = true
}

func (c *Client) now() time.Time {
	return c.deps.Clock.Now().UTC()
}

func (c *Client) status() Status {
	if c.session == nil {
		return StatusIdle
	}
	return c.session.Status
}

func (c *Client) viewLocked() View {
	v := View{
		Status:       c.status(),
		DurationLeft: c.durationLeft,
		QuestionLeft: c.questionLeft,
		AnswersOpen:  c.answersOpen,
		Admin:        c.role == RoleAdmin,
		Degraded:     c.degraded,
	}
	if c.session != nil {
		v.Session = c.session.Clone()
		v.Current = v.Session.Current()
		if p := c.player(); p != nil {
			answers, err := c.ledger.Records(p.ID)
			if err != nil {
				log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to read answers")
			}
			v.Answers = answers
		}
	}
	return v
}

func (c *Client) render() {
	c.deps.Presenter.State(c.viewLocked())
}

// player returns the local player profile, or nil when unregistered.
func (c *Client) player() *Player {
	var p Player
	ok, err := getJSON(c.deps.Local, keyPlayer, &p)
	if err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to read local player")
		return nil
	}
	if !ok || p.ID == "" {
		return nil
	}
	return &p
}

func (c *Client) savePlayer(p Player) {
	if err := setJSON(c.deps.Local, keyPlayer, p); err != nil {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Msg("failed to save local player")
	}
}

// collaboratorFailed reports unavailability once and logs everything else.
func (c *Client) collaboratorFailed(op string, err error) {
	if !errors.Is(err, ErrUnavailable) {
		log.Error().Err(err).Str("viewer", c.deps.ViewerID).Str("op", op).Msg("collaborator call failed")
		return
	}
	if c.degraded {
		return
	}
	c.degraded = true
	log.Warn().Err(err).Str("viewer", c.deps.ViewerID).Str("op", op).Msg("switching to local-only mode")
	c.deps.Presenter.Notify("warning", "Sin conexión con el servidor: el juego continúa solo en este dispositivo.")
}

func (c *Client) collaboratorOK() {
	c.degraded = false
}
