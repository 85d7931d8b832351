package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultTotalQuestions = 10
	DefaultDuration       = 15 * 60 // seconds
	DefaultQuestionTime   = 30      // seconds
	DefaultBasePoints     = 10
	DefaultDifficulty     = "all"

	maxTotalQuestions  = 500
	maxDurationMinutes = 24 * 60
	maxQuestionTime    = 60 * 60 // seconds
	maxBasePoints      = 1_000_000
)

// LooseInt holds a numeric field as the admin typed it. It accepts JSON numbers,
// strings and null, so missing or garbled input can fall back to a default.
type LooseInt string

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = LooseInt(s)
		return nil
	}
	*n = LooseInt(data)
	return nil
}

// GameConfigInput is the raw start-game form.
type GameConfigInput struct {
	GameType       string   `json:"gameType" form:"gameType"`
	TotalQuestions LooseInt `json:"totalQuestions" form:"totalQuestions"`
	Duration       LooseInt `json:"duration" form:"duration"`         // minutes
	QuestionTime   LooseInt `json:"questionTime" form:"questionTime"` // seconds
	BasePoints     LooseInt `json:"basePoints" form:"basePoints"`
	Difficulty     string   `json:"difficulty" form:"difficulty"`
}

type GameConfig struct {
	GameType       string
	TotalQuestions int
	Duration       int // seconds
	QuestionTime   int // seconds
	BasePoints     int
	Difficulty     string
}

// Normalize applies defaults to absent or non-numeric fields and rejects
// negative or oversized values.
func (in GameConfigInput) Normalize() (GameConfig, error) {
	cfg := GameConfig{
		GameType:   strings.TrimSpace(in.GameType),
		Difficulty: strings.ToLower(strings.TrimSpace(in.Difficulty)),
	}
	if cfg.GameType == "" {
		cfg.GameType = DefaultGameType
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = DefaultDifficulty
	}

	var err error
	if cfg.TotalQuestions, err = parseLoose("totalQuestions", in.TotalQuestions, DefaultTotalQuestions, maxTotalQuestions); err != nil {
		return GameConfig{}, err
	}
	minutes, err := parseLoose("duration", in.Duration, DefaultDuration/60, maxDurationMinutes)
	if err != nil {
		return GameConfig{}, err
	}
	cfg.Duration = minutes * 60
	if cfg.QuestionTime, err = parseLoose("questionTime", in.QuestionTime, DefaultQuestionTime, maxQuestionTime); err != nil {
		return GameConfig{}, err
	}
	if cfg.BasePoints, err = parseLoose("basePoints", in.BasePoints, DefaultBasePoints, maxBasePoints); err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

// parseLoose treats zero like an absent field, as the admin form always did.
func parseLoose(field string, v LooseInt, def, limit int) (int, error) {
	raw := strings.TrimSpace(string(v))
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return 0, validationf("%s must be at most %d", field, limit)
	}
	if err != nil || n == 0 {
		return def, nil
	}
	if n < 0 {
		return 0, validationf("%s must not be negative", field)
	}
	if n > limit {
		return 0, validationf("%s must be at most %d", field, limit)
	}
	return n, nil
}
