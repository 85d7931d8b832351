package quiz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportResults appends a results block for an ended session to filename.
func ExportResults(filename string, s *GameSession, winners []Player, at time.Time) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Radio Trivia - Juego %s (%s)\n", s.ID, s.GameType))
	sb.WriteString(fmt.Sprintf("Inicio: %s\n", s.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Fin: %s\n", at.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	sb.WriteString("Preguntas:\n")
	for _, q := range s.Questions {
		answer := ""
		if q.Correct >= 0 && q.Correct < len(q.Answers) {
			answer = q.Answers[q.Correct]
		}
		sb.WriteString(fmt.Sprintf("%d. %s -> %s (%d pts)\n", q.Rank, q.Prompt, answer, q.Points))
	}

	sb.WriteString("\nGanadores:\n")
	if len(winners) == 0 {
		sb.WriteString("- (sin ganadores)\n")
	}
	for i, p := range winners {
		sb.WriteString(fmt.Sprintf("%d. %s: %d puntos\n", i+1, p.Name, p.Points))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
