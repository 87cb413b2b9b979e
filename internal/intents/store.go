// Package intents holds the static tag -> (patterns, responses) mapping
// loaded from the definitions file at startup.
package intents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avvvet/intentbot/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoIntents indicates the definitions file has an empty intents list.
	ErrNoIntents = errors.New("definitions contain no intents")

	// ErrInvalidIntent indicates an intent with a missing or duplicate tag.
	ErrInvalidIntent = errors.New("invalid intent")
)

// Store is the immutable, in-memory intent store. Safe for concurrent reads.
type Store struct {
	intents []models.Intent
	byTag   map[string]int
}

// Load reads and validates the definitions file at path. The format is
// picked from the extension: .yaml/.yml are parsed as YAML, anything else
// as JSON.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}

	var defs models.Definitions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse YAML definitions %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&defs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON definitions %s: %w", path, err)
		}
	}

	return New(defs.Intents)
}

// New builds a Store from already decoded intents.
func New(intents []models.Intent) (*Store, error) {
	if len(intents) == 0 {
		return nil, ErrNoIntents
	}

	s := &Store{
		intents: make([]models.Intent, len(intents)),
		byTag:   make(map[string]int, len(intents)),
	}
	for i, in := range intents {
		if in.Tag == "" {
			return nil, fmt.Errorf("%w: intent #%d has an empty tag", ErrInvalidIntent, i)
		}
		if _, dup := s.byTag[in.Tag]; dup {
			return nil, fmt.Errorf("%w: duplicate tag %q", ErrInvalidIntent, in.Tag)
		}
		s.byTag[in.Tag] = i
		s.intents[i] = models.Intent{
			Tag:       in.Tag,
			Patterns:  append([]string(nil), in.Patterns...),
			Responses: append([]string(nil), in.Responses...),
		}
	}
	return s, nil
}

// ResponsesFor returns the reply strings for tag, or nil if the tag is unknown.
// The returned slice is a copy.
func (s *Store) ResponsesFor(tag string) []string {
	i, ok := s.byTag[tag]
	if !ok {
		return nil
	}
	return append([]string(nil), s.intents[i].Responses...)
}

// Examples flattens every (pattern, tag) pair in file order. Duplicate
// patterns are kept.
func (s *Store) Examples() []models.Example {
	var out []models.Example
	for _, in := range s.intents {
		for _, p := range in.Patterns {
			out = append(out, models.Example{Text: p, Tag: in.Tag})
		}
	}
	return out
}

// Tags returns every tag in file order.
func (s *Store) Tags() []string {
	tags := make([]string, len(s.intents))
	for i, in := range s.intents {
		tags[i] = in.Tag
	}
	return tags
}

// Len returns the number of intents.
func (s *Store) Len() int {
	return len(s.intents)
}
