package quiz

import (
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// rank orders difficulties for the cumulative filter.
func (d Difficulty) rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	default:
		return 3
	}
}

type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

type Question struct {
	ID         string     `json:"id" yaml:"id"`
	Prompt     string     `json:"prompt" yaml:"prompt"`
	Answers    []string   `json:"answers" yaml:"answers"`
	Correct    int        `json:"correct" yaml:"correct"`
	Points     int        `json:"points" yaml:"points"`
	Category   string     `json:"category" yaml:"category"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	TimeLimit  int        `json:"timeLimit" yaml:"timeLimit"` // seconds
	Rank       int        `json:"rank,omitempty" yaml:"-"`
}

type Settings struct {
	Difficulty     string `json:"difficulty"`
	BasePoints     int    `json:"basePoints"`
	TotalQuestions int    `json:"totalQuestions"`
}

type GameSession struct {
	ID           string     `json:"id"`
	GameType     string     `json:"gameType"`
	Duration     int        `json:"duration"`     // seconds
	QuestionTime int        `json:"questionTime"` // seconds
	Questions    []Question `json:"questions"`
	StartTime    time.Time  `json:"startTime"`
	Status       Status     `json:"status"`
	CurrentIndex int        `json:"currentIndex"`
	Settings     Settings   `json:"settings"`
	PausedAt     *time.Time `json:"pausedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

// Clone returns a deep copy so followers never share question slices with the store.
func (g *GameSession) Clone() *GameSession {
	if g == nil {
		return nil
	}
	out := *g
	out.Questions = make([]Question, len(g.Questions))
	for i, q := range g.Questions {
		q.Answers = append([]string(nil), q.Answers...)
		out.Questions[i] = q
	}
	if g.PausedAt != nil {
		t := *g.PausedAt
		out.PausedAt = &t
	}
	if g.EndedAt != nil {
		t := *g.EndedAt
		out.EndedAt = &t
	}
	return &out
}

// Current returns the question at CurrentIndex, or nil past the end.
func (g *GameSession) Current() *Question {
	if g == nil || g.CurrentIndex < 0 || g.CurrentIndex >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentIndex]
}

func (g *GameSession) question(id string) (int, *Question) {
	for i := range g.Questions {
		if g.Questions[i].ID == id {
			return i, &g.Questions[i]
		}
	}
	return -1, nil
}

type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Points      int       `json:"points"`
	GamesPlayed int       `json:"gamesPlayed"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

// PublicPlayer is what other listeners may see of a player. Contact fields
// stay with the operator.
type PublicPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
	GamesPlayed int    `json:"gamesPlayed"`
}

func (p Player) Public() PublicPlayer {
	return PublicPlayer{ID: p.ID, Name: p.Name, Points: p.Points, GamesPlayed: p.GamesPlayed}
}

// PublicPlayers projects a ranking for display. It never returns nil.
func PublicPlayers(players []Player) []PublicPlayer {
	out := make([]PublicPlayer, len(players))
	for i, p := range players {
		out[i] = p.Public()
	}
	return out
}

type AnswerStatus string

const (
	AnswerUnanswered AnswerStatus = "unanswered"
	AnswerCorrect    AnswerStatus = "correct"
	AnswerIncorrect  AnswerStatus = "incorrect"
	AnswerTimeout    AnswerStatus = "timeout"
)

type MessageType string

const (
	MessageChat     MessageType = "message"
	MessageSystem   MessageType = "system"
	MessageGreeting MessageType = "greeting"
)

type ChatMessage struct {
	Author string      `json:"author"`
	Body   string      `json:"body"`
	Time   time.Time   `json:"time"`
	Type   MessageType `json:"type"`
}

type SubmitResult struct {
	Accepted      bool `json:"accepted"`
	Correct       bool `json:"correct"`
	PointsAwarded int  `json:"pointsAwarded"`
	// CorrectIndex is only revealed to the submitter after an incorrect answer.
	CorrectIndex *int `json:"correctIndex,omitempty"`
}
