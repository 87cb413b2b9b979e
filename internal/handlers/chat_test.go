package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/avvvet/intentbot/internal/classifier"
	"github.com/avvvet/intentbot/internal/handlers"
	"github.com/avvvet/intentbot/internal/intents"
	"github.com/avvvet/intentbot/internal/models"
	"github.com/avvvet/intentbot/internal/prompts"
	"github.com/avvvet/intentbot/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	tag   string
	err   error
	calls int
}

func (f *fakePredictor) Predict(string) (classifier.Prediction, error) {
	f.calls++
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	return classifier.Prediction{Tag: f.tag}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *intents.Store {
	t.Helper()
	s, err := intents.New([]models.Intent{
		{Tag: "greeting", Patterns: []string{"hello", "hi", "good morning"}, Responses: []string{"Hi!", "Hello there!"}},
		{Tag: "goodbye", Patterns: []string{"bye", "goodbye", "see you later"}, Responses: []string{"See you!"}},
		{Tag: "mute", Patterns: []string{"silence"}, Responses: nil},
	})
	require.NoError(t, err)
	return s
}

func TestProcessMessage_Empty(t *testing.T) {
	p := &fakePredictor{tag: "greeting"}
	h := handlers.NewChatHandler(p, newStore(t), discardLogger())

	for _, in := range []string{"", "   ", "\t\n", " \r\n "} {
		r := h.ProcessMessage(context.Background(), in)
		assert.Equal(t, prompts.EmptyMessage, r.Response)
		assert.Equal(t, models.OutcomeEmpty, r.Outcome)
	}
	assert.Zero(t, p.calls)
}

func TestProcessMessage_InvalidChars(t *testing.T) {
	p := &fakePredictor{tag: "greeting"}
	h := handlers.NewChatHandler(p, newStore(t), discardLogger())

	for _, in := range []string{"hi$$$", "hello, world", "a-b", "café", "<script>", "50%", "hi \"there\""} {
		r := h.ProcessMessage(context.Background(), in)
		assert.Equal(t, prompts.InvalidCharsMessage, r.Response, in)
		assert.Equal(t, models.OutcomeInvalid, r.Outcome, in)
	}
	assert.Zero(t, p.calls)
}

func TestValidateChars(t *testing.T) {
	for _, ok := range []string{"Hello there!", "what's up?", "v1.2. ok", "tab\there"} {
		assert.NoError(t, handlers.ValidateChars(ok), ok)
		// Same input, same outcome.
		assert.NoError(t, handlers.ValidateChars(ok), ok)
	}
	assert.ErrorIs(t, handlers.ValidateChars("hi$"), handlers.ErrInvalidChars)
}

func TestValidateChars_UnicodeWhitespace(t *testing.T) {
	for _, in := range []string{"hi\u00a0there", "hello\u2003there", "hi\x1cthere", "a\u0085b", "line\u2028break"} {
		assert.NoError(t, handlers.ValidateChars(in), "%q", in)
	}
	// Non-space format characters are still rejected.
	assert.ErrorIs(t, handlers.ValidateChars("hi\u200bthere"), handlers.ErrInvalidChars)
}

func TestProcessMessage_UnicodeWhitespaceIsClassified(t *testing.T) {
	p := &fakePredictor{tag: "greeting"}
	h := handlers.NewChatHandler(p, newStore(t), discardLogger())

	for _, in := range []string{"hi\u00a0there", "hello\u2003there", "hi\x1cthere"} {
		r := h.ProcessMessage(context.Background(), in)
		assert.Equal(t, models.OutcomeMatched, r.Outcome, "%q", in)
		assert.Equal(t, "greeting", r.Tag, "%q", in)
	}
	assert.Equal(t, 3, p.calls)
}

func TestProcessMessage_Matched(t *testing.T) {
	p := &fakePredictor{tag: "greeting"}
	h := handlers.NewChatHandler(p, newStore(t), discardLogger(), handlers.WithPicker(func(n int) int { return n - 1 }))

	r := h.ProcessMessage(context.Background(), "hello")
	assert.Equal(t, "Hello there!", r.Response)
	assert.Equal(t, models.OutcomeMatched, r.Outcome)
	assert.Equal(t, "greeting", r.Tag)
}

func TestProcessMessage_RandomWithinSet(t *testing.T) {
	h := handlers.NewChatHandler(&fakePredictor{tag: "greeting"}, newStore(t), discardLogger())

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		r := h.ProcessMessage(context.Background(), "hello")
		require.Contains(t, []string{"Hi!", "Hello there!"}, r.Response)
		seen[r.Response] = true
	}
	assert.Len(t, seen, 2)
}

func TestProcessMessage_Fallback(t *testing.T) {
	tests := []struct {
		name string
		pred *fakePredictor
	}{
		{"no features", &fakePredictor{err: classifier.ErrNoFeatures}},
		{"internal error", &fakePredictor{err: errors.New("boom")}},
		{"unknown tag", &fakePredictor{tag: "nope"}},
		{"empty responses", &fakePredictor{tag: "mute"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewChatHandler(tt.pred, newStore(t), discardLogger())
			r := h.ProcessMessage(context.Background(), "hello")
			assert.Equal(t, prompts.FallbackMessage, r.Response)
			assert.Equal(t, models.OutcomeFallback, r.Outcome)
			assert.Empty(t, r.Tag)
		})
	}
}

func TestProcessMessage_RecordsStats(t *testing.T) {
	store := stats.NewMemoryStore()
	h := handlers.NewChatHandler(&fakePredictor{tag: "greeting"}, newStore(t), discardLogger(), handlers.WithStats(store))

	ctx := context.Background()
	h.ProcessMessage(ctx, "hello")
	h.ProcessMessage(ctx, "")
	h.ProcessMessage(ctx, "hi$")

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"matched": 1, "empty": 1, "invalid": 1}, snap.Outcomes)
	assert.Equal(t, map[string]int64{"greeting": 1}, snap.Tags)
}

func TestProcessMessage_EndToEnd(t *testing.T) {
	store := newStore(t)
	opts := classifier.DefaultOptions()
	opts.TestSize = 0
	model, err := classifier.Train(store.Examples(), opts)
	require.NoError(t, err)

	h := handlers.NewChatHandler(model, store, discardLogger())
	ctx := context.Background()

	r := h.ProcessMessage(ctx, "hello")
	assert.Contains(t, []string{"Hi!", "Hello there!"}, r.Response)

	assert.Equal(t, "See you!", h.ProcessMessage(ctx, "bye bye").Response)
	assert.Equal(t, prompts.FallbackMessage, h.ProcessMessage(ctx, "asdkjhasd").Response)
	assert.Equal(t, prompts.EmptyMessage, h.ProcessMessage(ctx, "   ").Response)
	assert.Equal(t, prompts.InvalidCharsMessage, h.ProcessMessage(ctx, "hi$$$").Response)
}

func TestProcessMessage_ShippedDefinitions(t *testing.T) {
	store, err := intents.Load("../../intents.json")
	require.NoError(t, err)

	// Default options hold out part of the examples, as serve does.
	model, err := classifier.Train(store.Examples(), classifier.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, model.HeldOut())

	p, err := model.Predict("hello")
	require.NoError(t, err)
	assert.Equal(t, "greeting", p.Tag)

	h := handlers.NewChatHandler(model, store, discardLogger())
	r := h.ProcessMessage(context.Background(), "hello")
	assert.Equal(t, models.OutcomeMatched, r.Outcome)
	assert.Contains(t, store.ResponsesFor("greeting"), r.Response)
}
