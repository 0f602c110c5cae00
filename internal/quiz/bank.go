// Package quiz loads the question banks. The banks are opaque read-only
// sequences: once loaded they are shared across all rooms without
// synchronization.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrEmptyBank = errors.New("question bank is empty")

// Question is one multiple-choice entry. Correct indexes into Options.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// NumericQuestion is answered with a whole number; closest guess wins.
type NumericQuestion struct {
	Text   string `json:"question"`
	Answer int    `json:"answer"`
}

// LoadQuestions reads a multiple-choice bank from a JSON file. An empty path
// yields the built-in bank so the server can run without data files.
func LoadQuestions(path string) ([]Question, error) {
	if path == "" {
		return builtinQuestions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBank)
	}
	return qs, nil
}

// LoadNumericQuestions reads a numeric bank from a JSON file, falling back to
// the built-in bank when path is empty.
func LoadNumericQuestions(path string) ([]NumericQuestion, error) {
	if path == "" {
		return builtinNumeric, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read numeric bank: %w", err)
	}
	var qs []NumericQuestion
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse numeric bank %s: %w", path, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBank)
	}
	return qs, nil
}

var builtinQuestions = []Question{
	{Text: "Which planet is closest to the sun?", Options: []string{"Venus", "Mercury", "Mars", "Earth"}, Correct: 1},
	{Text: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, Correct: 1},
	{Text: "Which element has the symbol Fe?", Options: []string{"Lead", "Tin", "Iron", "Zinc"}, Correct: 2},
	{Text: "What is the capital of Norway?", Options: []string{"Bergen", "Oslo", "Stockholm", "Helsinki"}, Correct: 1},
	{Text: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, Correct: 3},
}

var builtinNumeric = []NumericQuestion{
	{Text: "In what year did the first human reach space?", Answer: 1961},
	{Text: "How many bones are in the adult human body?", Answer: 206},
	{Text: "How many meters tall is Mount Everest?", Answer: 8849},
	{Text: "How many keys does a standard piano have?", Answer: 88},
	{Text: "In what year was the printing press invented?", Answer: 1440},
}
