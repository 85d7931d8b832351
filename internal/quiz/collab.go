package quiz

import (
	"context"
)

// GameStore is the shared store holding the one current session.
// GetCurrentGame returns (nil, nil) when no session was ever saved.
type GameStore interface {
	GetCurrentGame(ctx context.Context) (*GameSession, error)
	SaveCurrentGame(ctx context.Context, s *GameSession) error
}

// PlayerStore holds player identities and cumulative scores.
// SavePlayer inserts a player or updates its profile and LastActive; it never
// changes Points or GamesPlayed of a stored player. UpdatePlayerScore adds
// delta points and counts one more game played.
type PlayerStore interface {
	GetPlayers(ctx context.Context) ([]Player, error)
	SavePlayer(ctx context.Context, p Player) (Player, error)
	UpdatePlayerScore(ctx context.Context, playerID string, delta int) error
}

type Authenticator interface {
	LoginAdmin(ctx context.Context, email, password string) (adminName string, err error)
}

// Chat receives system announcements. Delivery to listeners is its business.
type Chat interface {
	SendChatMessage(ctx context.Context, text string, typ MessageType) error
}

// LocalState is a viewer's private string-keyed store of JSON documents.
type LocalState interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// View is what a presenter needs to draw the game.
type View struct {
	Status       Status       `json:"status"`
	Session      *GameSession `json:"session,omitempty"`
	Current      *Question    `json:"current,omitempty"`
	DurationLeft int          `json:"durationLeft"`
	QuestionLeft int          `json:"questionLeft"`
	AnswersOpen  bool         `json:"answersOpen"`
	Admin        bool         `json:"admin"`
	Degraded     bool         `json:"degraded"`

	// Answers are the local player's outcomes keyed by question ID.
	Answers map[string]AnswerStatus `json:"answers,omitempty"`
}

// Presenter is the narrow rendering surface of a viewer.
type Presenter interface {
	State(v View)
	Question(q Question, remaining int)
	TimeUp(questionID string)
	AnswerResult(questionID string, res SubmitResult)
	Winners(top []Player)
	Ranking(players []Player)
	Notify(level, message string)
}

type NopPresenter struct{}

func (NopPresenter) State(View) {}
func (NopPresenter) Question(Question, int) {}
func (NopPresenter) TimeUp(string) {}
func (NopPresenter) AnswerResult(string, SubmitResult) {}
func (NopPresenter) Winners([]Player) {}
func (NopPresenter) Ranking([]Player) {}
func (NopPresenter) Notify(string, string) {}
