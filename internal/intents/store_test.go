package intents_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avvvet/intentbot/internal/intents"
	"github.com/avvvet/intentbot/internal/models"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "intents": [
    {"tag": "greeting", "patterns": ["Hi", "Hello"], "responses": ["Hi!", "Hello there!"]},
    {"tag": "goodbye", "patterns": ["Bye", "Bye"], "responses": ["See you!"]},
    {"tag": "silent", "patterns": [], "responses": []}
  ]
}`

const sampleYAML = `intents:
  - tag: greeting
    patterns: [Hi, Hello]
    responses: ["Hi!", "Hello there!"]
  - tag: goodbye
    patterns: [Bye]
    responses: ["See you!"]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	s, err := intents.Load(writeFile(t, "intents.json", sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"greeting", "goodbye", "silent"}, s.Tags())
	assert.Equal(t, []string{"Hi!", "Hello there!"}, s.ResponsesFor("greeting"))
	assert.Empty(t, s.ResponsesFor("silent"))
	assert.Nil(t, s.ResponsesFor("unknown"))
}

func TestLoad_YAML(t *testing.T) {
	s, err := intents.Load(writeFile(t, "intents.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"greeting", "goodbye"}, s.Tags())
	assert.Equal(t, []string{"See you!"}, s.ResponsesFor("goodbye"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := intents.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := intents.Load(writeFile(t, "intents.json", `{"intents": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON definitions")
}

func TestLoad_Empty(t *testing.T) {
	_, err := intents.Load(writeFile(t, "intents.json", `{"intents": []}`))
	assert.ErrorIs(t, err, intents.ErrNoIntents)
}

func TestNew_RejectsBadTags(t *testing.T) {
	_, err := intents.New([]models.Intent{{Tag: ""}})
	assert.ErrorIs(t, err, intents.ErrInvalidIntent)

	_, err = intents.New([]models.Intent{{Tag: "a"}, {Tag: "a"}})
	assert.ErrorIs(t, err, intents.ErrInvalidIntent)
}

func TestExamples_KeepsDuplicatesInOrder(t *testing.T) {
	s, err := intents.Load(writeFile(t, "intents.json", sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, []models.Example{
		{Text: "Hi", Tag: "greeting"},
		{Text: "Hello", Tag: "greeting"},
		{Text: "Bye", Tag: "goodbye"},
		{Text: "Bye", Tag: "goodbye"},
	}, s.Examples())
}

func TestResponsesFor_ReturnsCopy(t *testing.T) {
	s, err := intents.Load(writeFile(t, "intents.json", sampleJSON))
	require.NoError(t, err)

	r := s.ResponsesFor("greeting")
	r[0] = "mutated"
	assert.Equal(t, "Hi!", s.ResponsesFor("greeting")[0])
}

func TestWatch_ReportsChange(t *testing.T) {
	path := writeFile(t, "intents.json", sampleJSON)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan fsnotify.Op, 8)
	require.NoError(t, intents.Watch(ctx, path, logger, func(op fsnotify.Op) { changed <- op }))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON+"\n"), 0o644))

	select {
	case op := <-changed:
		assert.NotZero(t, op&(fsnotify.Write|fsnotify.Create))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
