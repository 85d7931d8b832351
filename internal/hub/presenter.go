package hub

import (
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

const (
	EventState    = "game:state"
	EventQuestion = "game:question"
	EventTimeUp   = "game:timeup"
	EventAnswer   = "game:answer"
	EventWinners  = "game:winners"
	EventRanking  = "ranking"
	EventNotify   = "notify"
)

type presenter struct {
	token string
	hub   *Hub
}

func (p *presenter) State(v quiz.View) {
	p.hub.emit(p.token, EventState, Redact(v))
}

func (p *presenter) Question(q quiz.Question, remaining int) {
	p.hub.emit(p.token, EventQuestion, map[string]any{
		"question":  q,
		"remaining": remaining,
	})
}

func (p *presenter) TimeUp(questionID string) {
	p.hub.emit(p.token, EventTimeUp, map[string]any{"questionId": questionID})
}

func (p *presenter) AnswerResult(questionID string, res quiz.SubmitResult) {
	p.hub.emit(p.token, EventAnswer, map[string]any{"questionId": questionID, "result": res})
}

func (p *presenter) Winners(top []quiz.Player) {
	p.hub.emit(p.token, EventWinners, map[string]any{"winners": quiz.PublicPlayers(top)})
}

func (p *presenter) Ranking(players []quiz.Player) {
	p.hub.emit(p.token, EventRanking, map[string]any{"players": quiz.PublicPlayers(players)})
}

func (p *presenter) Notify(level, message string) {
	p.hub.emit(p.token, EventNotify, map[string]any{"level": level, "message": message})
}

// Redact hides correct answers from everyone but the admin.
func Redact(v quiz.View) quiz.View {
	if v.Admin {
		return v
	}
	if v.Session != nil {
		v.Session = v.Session.Clone()
		for i := range v.Session.Questions {
			v.Session.Questions[i] = redactQuestion(v.Session.Questions[i])
		}
		v.Current = v.Session.Current()
	}
	return v
}

func redactQuestion(q quiz.Question) quiz.Question {
	q.Correct = -1
	return q
}
