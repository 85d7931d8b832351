package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultGameType = "preguntas"

// Bank maps a game type to its catalog of questions.
type Bank map[string][]Question

// Catalog returns the questions for gameType, falling back to the default catalog.
func (b Bank) Catalog(gameType string) (string, []Question) {
	if qs, ok := b[gameType]; ok && len(qs) > 0 {
		return gameType, qs
	}
	return DefaultGameType, b[DefaultGameType]
}

func (b Bank) Validate() error {
	for gameType, qs := range b {
		seen := make(map[string]bool, len(qs))
		for _, q := range qs {
			if q.ID == "" {
				return fmt.Errorf("%s: question without id", gameType)
			}
			if seen[q.ID] {
				return fmt.Errorf("%s: duplicate question id %q", gameType, q.ID)
			}
			seen[q.ID] = true
			if len(q.Answers) < 2 || len(q.Answers) > 4 {
				return fmt.Errorf("%s/%s: need 2-4 answers, got %d", gameType, q.ID, len(q.Answers))
			}
			if q.Correct < 0 || q.Correct >= len(q.Answers) {
				return fmt.Errorf("%s/%s: correct index %d out of range", gameType, q.ID, q.Correct)
			}
			switch q.Difficulty {
			case DifficultyEasy, DifficultyMedium, DifficultyHard:
			default:
				return fmt.Errorf("%s/%s: unknown difficulty %q", gameType, q.ID, q.Difficulty)
			}
		}
	}
	if len(b[DefaultGameType]) == 0 {
		return fmt.Errorf("default catalog %q is empty", DefaultGameType)
	}
	return nil
}

// LoadBank reads a YAML catalog file and merges it over the built-in bank.
// Catalogs present in the file replace the built-in catalog of the same name.
func LoadBank(path string) (Bank, error) {
	b := DefaultBank()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	var file Bank
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	for gameType, qs := range file {
		for i := range qs {
			if qs[i].Points == 0 {
				qs[i].Points = 10
			}
			if qs[i].TimeLimit == 0 {
				qs[i].TimeLimit = 30
			}
		}
		b[gameType] = qs
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func DefaultBank() Bank {
	return Bank{
		"preguntas": {
			{ID: "p1", Prompt: "¿Cuál es la capital de Colombia?", Answers: []string{"Medellín", "Bogotá", "Cali", "Cartagena"}, Correct: 1, Points: 10, Category: "geografía", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "p2", Prompt: "¿Cuántos continentes hay en el mundo?", Answers: []string{"5", "6", "7", "8"}, Correct: 2, Points: 10, Category: "geografía", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "p3", Prompt: "¿Qué planeta es conocido como el planeta rojo?", Answers: []string{"Venus", "Marte", "Júpiter"}, Correct: 1, Points: 10, Category: "ciencia", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "p4", Prompt: "¿Cuál es el río más largo de Sudamérica?", Answers: []string{"Orinoco", "Paraná", "Amazonas", "Magdalena"}, Correct: 2, Points: 10, Category: "geografía", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "p5", Prompt: "¿En qué año llegó Colón a América?", Answers: []string{"1492", "1502", "1488", "1510"}, Correct: 0, Points: 15, Category: "historia", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "p6", Prompt: "¿Cuál es el símbolo químico del oro?", Answers: []string{"Ag", "Au", "Or", "Go"}, Correct: 1, Points: 15, Category: "ciencia", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "p7", Prompt: "¿Quién escribió 'Cien años de soledad'?", Answers: []string{"Mario Vargas Llosa", "Julio Cortázar", "Gabriel García Márquez", "Pablo Neruda"}, Correct: 2, Points: 15, Category: "literatura", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "p8", Prompt: "¿Cuántos huesos tiene el cuerpo humano adulto?", Answers: []string{"186", "206", "226", "246"}, Correct: 1, Points: 15, Category: "ciencia", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "p9", Prompt: "¿Cuál es el elemento más abundante en la corteza terrestre?", Answers: []string{"Silicio", "Hierro", "Oxígeno", "Aluminio"}, Correct: 2, Points: 20, Category: "ciencia", Difficulty: DifficultyHard, TimeLimit: 30},
			{ID: "p10", Prompt: "¿En qué año se firmó la independencia de Colombia?", Answers: []string{"1810", "1819", "1821", "1830"}, Correct: 0, Points: 20, Category: "historia", Difficulty: DifficultyHard, TimeLimit: 30},
			{ID: "p11", Prompt: "¿Cuál es la montaña más alta de América?", Answers: []string{"Chimborazo", "Aconcagua", "Huascarán", "Denali"}, Correct: 1, Points: 20, Category: "geografía", Difficulty: DifficultyHard, TimeLimit: 30},
			{ID: "p12", Prompt: "¿Qué científico propuso la teoría de la relatividad?", Answers: []string{"Newton", "Einstein", "Bohr", "Galileo"}, Correct: 1, Points: 10, Category: "ciencia", Difficulty: DifficultyEasy, TimeLimit: 30},
		},
		"musica": {
			{ID: "m1", Prompt: "¿De qué país es originaria la cumbia?", Answers: []string{"México", "Colombia", "Argentina", "Perú"}, Correct: 1, Points: 10, Category: "música", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "m2", Prompt: "¿Cuántas cuerdas tiene una guitarra clásica?", Answers: []string{"4", "5", "6", "7"}, Correct: 2, Points: 10, Category: "música", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "m3", Prompt: "¿Qué instrumento tocaba Lucho Bermúdez?", Answers: []string{"Clarinete", "Piano", "Acordeón", "Trompeta"}, Correct: 0, Points: 15, Category: "música", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "m4", Prompt: "¿Qué género musical nació en Valledupar?", Answers: []string{"Salsa", "Vallenato", "Bambuco", "Porro"}, Correct: 1, Points: 10, Category: "música", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "m5", Prompt: "¿Cuántas notas tiene la escala musical diatónica?", Answers: []string{"5", "7", "8", "12"}, Correct: 1, Points: 15, Category: "música", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "m6", Prompt: "¿Quién compuso 'Las cuatro estaciones'?", Answers: []string{"Bach", "Mozart", "Vivaldi", "Beethoven"}, Correct: 2, Points: 20, Category: "música", Difficulty: DifficultyHard, TimeLimit: 30},
		},
		"radio": {
			{ID: "r1", Prompt: "¿Qué significa la sigla FM?", Answers: []string{"Frecuencia Modulada", "Fuerza Media", "Fase Múltiple"}, Correct: 0, Points: 10, Category: "radio", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "r2", Prompt: "¿Quién es considerado uno de los inventores de la radio?", Answers: []string{"Marconi", "Edison", "Bell", "Tesla y Marconi"}, Correct: 3, Points: 15, Category: "radio", Difficulty: DifficultyMedium, TimeLimit: 30},
			{ID: "r3", Prompt: "¿En qué unidad se mide la frecuencia de una emisora?", Answers: []string{"Voltios", "Hercios", "Vatios", "Decibelios"}, Correct: 1, Points: 10, Category: "radio", Difficulty: DifficultyEasy, TimeLimit: 30},
			{ID: "r4", Prompt: "¿En qué década comenzó la radiodifusión comercial en Colombia?", Answers: []string{"1920", "1930", "1950", "1960"}, Correct: 1, Points: 20, Category: "radio", Difficulty: DifficultyHard, TimeLimit: 30},
		},
	}
}
