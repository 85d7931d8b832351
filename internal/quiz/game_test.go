package quiz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStartRequiresAdmin(t *testing.T) {
	e := newEnv()
	c := e.client(t, nil)
	if _, err := c.StartGame(context.Background(), GameConfigInput{}); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("follower should not start games, got %v", err)
	}
	if err := c.PauseGame(context.Background()); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("follower should not pause games, got %v", err)
	}
	if _, err := c.LoginAdmin(context.Background(), "radio@example.org", "mal"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password should be unauthorized, got %v", err)
	}
	if c.Role() != RoleFollower {
		t.Fatalf("failed login should keep the follower role")
	}
}

func TestStartGamePublishesSession(t *testing.T) {
	e := newEnv()
	admin := e.admin(t)
	ctx := context.Background()

	s, err := admin.StartGame(ctx, GameConfigInput{TotalQuestions: "3", Duration: "5", QuestionTime: "20"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(s.Questions) != 3 || s.Duration != 300 || s.Status != StatusActive || !s.StartTime.Equal(testStart) {
		t.Fatalf("session should follow the form, got %+v", s)
	}
	for _, q := range s.Questions {
		if q.TimeLimit != 20 {
			t.Fatalf("question time should apply to every question, got %d", q.TimeLimit)
		}
	}
	if stored := e.games.current(); stored == nil || stored.ID != s.ID {
		t.Fatalf("session should be saved to the shared store")
	}
	if _, err := admin.StartGame(ctx, GameConfigInput{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("starting over a running game should fail, got %v", err)
	}
	v := admin.View()
	if v.DurationLeft != 300 || v.QuestionLeft != 20 || !v.AnswersOpen || v.Current.ID != s.Questions[0].ID {
		t.Fatalf("first question should be open, got %+v", v)
	}
	if len(e.chat.msgs) != 1 || !strings.Contains(e.chat.msgs[0], "3 preguntas") {
		t.Fatalf("start should be announced, got %v", e.chat.msgs)
	}
}

func TestBasePointsFillMissingPoints(t *testing.T) {
	e := newEnv()
	bank := Bank{DefaultGameType: {
		{ID: "a", Prompt: "?", Answers: []string{"x", "y"}, Difficulty: DifficultyEasy, TimeLimit: 30},
		{ID: "b", Prompt: "?", Answers: []string{"x", "y"}, Points: 7, Difficulty: DifficultyEasy, TimeLimit: 30},
	}}
	admin := e.admin(t, func(d *Deps) { d.Bank = bank })
	s, err := admin.StartGame(context.Background(), GameConfigInput{BasePoints: "25"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range s.Questions {
		want := 25
		if q.ID == "b" {
			want = 7
		}
		if q.Points != want {
			t.Fatalf("question %s should be worth %d, got %d", q.ID, want, q.Points)
		}
	}
}

func TestFullGameScoresEachQuestionOnce(t *testing.T) {
	e := newEnv()
	pres := &recPresenter{}
	admin := e.client(t, pres)
	ctx := context.Background()
	if _, err := admin.LoginAdmin(ctx, "radio@example.org", "secreto"); err != nil {
		t.Fatalf("login: %v", err)
	}
	ana := register(t, admin, "Ana")

	s, err := admin.StartGame(ctx, GameConfigInput{TotalQuestions: "3"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	q0, q1, q2 := s.Questions[0], s.Questions[1], s.Questions[2]

	res, err := admin.SubmitAnswer(ctx, q0.ID, q0.Correct)
	if err != nil || !res.Correct || res.PointsAwarded != q0.Points {
		t.Fatalf("correct answer should score, got %+v %v", res, err)
	}
	if _, err := admin.SubmitAnswer(ctx, q0.ID, q0.Correct); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("second answer should be rejected, got %v", err)
	}
	if _, err := admin.SubmitAnswer(ctx, q1.ID, q1.Correct); !errors.Is(err, ErrQuestionClosed) {
		t.Fatalf("answering ahead should be rejected, got %v", err)
	}
	if _, err := admin.SubmitAnswer(ctx, "nope", 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("unknown question should be rejected, got %v", err)
	}

	if err := admin.NextQuestion(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	wrong := (q1.Correct + 1) % len(q1.Answers)
	res, err = admin.SubmitAnswer(ctx, q1.ID, wrong)
	if err != nil || res.Correct || res.CorrectIndex == nil || *res.CorrectIndex != q1.Correct {
		t.Fatalf("wrong answer should reveal the correct one, got %+v %v", res, err)
	}
	if _, err := admin.SubmitAnswer(ctx, q1.ID, q1.Correct); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("changing an answer should be rejected, got %v", err)
	}

	if err := admin.NextQuestion(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if v := admin.View(); v.Answers[q0.ID] != AnswerCorrect || v.Answers[q1.ID] != AnswerIncorrect {
		t.Fatalf("view should carry the player's outcomes, got %v", v.Answers)
	}
	ticks(admin, q2.TimeLimit)
	if len(pres.timeUps) != 1 || pres.timeUps[0] != q2.ID {
		t.Fatalf("question should time out, got %v", pres.timeUps)
	}
	if _, err := admin.SubmitAnswer(ctx, q2.ID, q2.Correct); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("timed out question should not accept answers, got %v", err)
	}

	// Next past the last question ends the game.
	if err := admin.NextQuestion(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if v := admin.View(); v.Status != StatusEnded {
		t.Fatalf("game should end after the last question, got %s", v.Status)
	}

	stored := e.players.get(ana.ID)
	if stored.Points != q0.Points || stored.GamesPlayed != 1 {
		t.Fatalf("only the correct answer should count, got %d points", stored.Points)
	}
	if local := admin.CurrentPlayer(); local.Points != q0.Points {
		t.Fatalf("local profile should track points, got %d", local.Points)
	}
	if len(pres.winners) != 1 || len(pres.winners[0]) != 1 || pres.winners[0][0].ID != ana.ID {
		t.Fatalf("winners should be shown, got %v", pres.winners)
	}
	top, _ := admin.LastWinners()
	if len(top) != 1 || top[0].Name != "Ana" {
		t.Fatalf("winners should be saved locally, got %v", top)
	}
	if e.games.current().Status != StatusEnded {
		t.Fatalf("ended game should be saved")
	}
	if recs, _ := NewLedger(admin.deps.Local).Records(ana.ID); len(recs) != 0 {
		t.Fatalf("answers should be cleared at the end, got %v", recs)
	}
}

func TestDurationRunsOut(t *testing.T) {
	e := newEnv()
	pres := &recPresenter{}
	admin := e.client(t, pres)
	ctx := context.Background()
	_, _ = admin.LoginAdmin(ctx, "radio@example.org", "secreto")
	if _, err := admin.StartGame(ctx, GameConfigInput{Duration: "1", QuestionTime: "100"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	ticks(admin, 59)
	if v := admin.View(); v.Status != StatusActive || v.DurationLeft != 1 {
		t.Fatalf("game should still run with one second left, got %+v", v)
	}
	admin.Tick()
	if v := admin.View(); v.Status != StatusEnded || v.DurationLeft != 0 || v.AnswersOpen {
		t.Fatalf("game should end when the duration runs out, got %+v", v)
	}
	if len(pres.winners) != 1 {
		t.Fatalf("end should present winners once, got %d", len(pres.winners))
	}
	ticks(admin, 5)
	if v := admin.View(); v.DurationLeft != 0 {
		t.Fatalf("ended game should not keep counting")
	}
	if err := admin.EndGame(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("ending twice should fail, got %v", err)
	}
}

func TestPauseAndResume(t *testing.T) {
	e := newEnv()
	admin := e.admin(t)
	ctx := context.Background()

	if err := admin.PauseGame(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pausing without a game should fail, got %v", err)
	}
	if _, err := admin.StartGame(ctx, GameConfigInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	ticks(admin, 10)
	if err := admin.PauseGame(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	ticks(admin, 5)
	if v := admin.View(); v.DurationLeft != 890 || v.QuestionLeft != 20 {
		t.Fatalf("paused game should not count down, got %+v", v)
	}
	if err := admin.NextQuestion(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("next while paused should fail, got %v", err)
	}
	if stored := e.games.current(); stored.Status != StatusPaused || stored.PausedAt == nil {
		t.Fatalf("pause should be saved, got %+v", stored)
	}

	e.clock.Advance(time.Minute)
	if err := admin.ResumeGame(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := admin.ResumeGame(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resuming a running game should fail, got %v", err)
	}
	stored := e.games.current()
	if stored.Status != StatusActive || stored.PausedAt != nil || !stored.StartTime.Equal(testStart.Add(time.Minute)) {
		t.Fatalf("resume should shift the start by the pause, got %+v", stored)
	}
	admin.Tick()
	if v := admin.View(); v.DurationLeft != 889 || v.QuestionLeft != 19 {
		t.Fatalf("resumed game should count down again, got %+v", v)
	}
}

func TestExportOnEnd(t *testing.T) {
	e := newEnv()
	file := filepath.Join(t.TempDir(), "out", "results.txt")
	admin := e.admin(t, func(d *Deps) { d.ExportFile = file })
	ctx := context.Background()
	register(t, admin, "Beto")
	s, _ := admin.StartGame(ctx, GameConfigInput{TotalQuestions: "2"})
	_, _ = admin.SubmitAnswer(ctx, s.Questions[0].ID, s.Questions[0].Correct)
	if err := admin.EndGame(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("results should be exported: %v", err)
	}
	if !strings.Contains(string(data), s.ID) || !strings.Contains(string(data), "1. Beto") {
		t.Fatalf("export should list game and winners, got %s", data)
	}
}

func TestTickerDrivesCountdown(t *testing.T) {
	e := newEnv()
	admin := e.admin(t, func(d *Deps) { d.ManualTicks = false })
	if _, err := admin.StartGame(context.Background(), GameConfigInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.clock.BlockUntil(1)
	e.clock.Advance(time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if admin.View().DurationLeft == 899 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ticker should advance the countdown, got %d", admin.View().DurationLeft)
}
