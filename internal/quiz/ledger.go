package quiz

import (
	"encoding/json"
	"fmt"
)

const (
	keyPlayer      = "player"
	keyWinners     = "winners"
	keyRecentNames = "recent_names"
	answerPrefix   = "answer:"
)

func answerKey(questionID, playerID string) string {
	return answerPrefix + questionID + ":" + playerID
}

// Ledger keeps one write-once AnswerStatus per (question, player).
type Ledger struct {
	local LocalState
}

func NewLedger(local LocalState) *Ledger {
	return &Ledger{local: local}
}

func (l *Ledger) Get(questionID, playerID string) (AnswerStatus, error) {
	var st AnswerStatus
	ok, err := getJSON(l.local, answerKey(questionID, playerID), &st)
	if err != nil {
		return AnswerUnanswered, err
	}
	if !ok || st == "" {
		return AnswerUnanswered, nil
	}
	return st, nil
}

// Record sets the outcome once. A second write for the same key fails with
// ErrAlreadyAnswered and leaves the first outcome in place.
func (l *Ledger) Record(questionID, playerID string, st AnswerStatus) error {
	cur, err := l.Get(questionID, playerID)
	if err != nil {
		return err
	}
	if cur != AnswerUnanswered {
		return ErrAlreadyAnswered
	}
	return setJSON(l.local, answerKey(questionID, playerID), st)
}

// Clear drops the records of playerID for the given questions.
func (l *Ledger) Clear(playerID string, questionIDs []string) error {
	for _, id := range questionIDs {
		if err := l.local.Delete(answerKey(id, playerID)); err != nil {
			return err
		}
	}
	return nil
}

// Records lists the outcomes stored for playerID keyed by question ID.
func (l *Ledger) Records(playerID string) (map[string]AnswerStatus, error) {
	keys, err := l.local.Keys(answerPrefix)
	if err != nil {
		return nil, err
	}
	suffix := ":" + playerID
	out := make(map[string]AnswerStatus)
	for _, k := range keys {
		if len(k) <= len(answerPrefix)+len(suffix) || k[len(k)-len(suffix):] != suffix {
			continue
		}
		var st AnswerStatus
		if _, err := getJSON(l.local, k, &st); err != nil {
			return nil, err
		}
		out[k[len(answerPrefix):len(k)-len(suffix)]] = st
	}
	return out, nil
}

func getJSON(local LocalState, key string, v any) (bool, error) {
	raw, ok, err := local.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(local LocalState, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return local.Set(key, raw)
}
