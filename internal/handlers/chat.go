package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/avvvet/intentbot/internal/classifier"
	"github.com/avvvet/intentbot/internal/models"
	"github.com/avvvet/intentbot/internal/prompts"
	"github.com/avvvet/intentbot/internal/stats"
)

// disallowed matches any character outside the accepted set. Whitespace is
// Unicode whitespace (no-break and em spaces, NEL, the \x1c-\x1f separators),
// not only the ASCII set RE2's \s covers.
var disallowed = regexp.MustCompile(`[^a-zA-Z0-9\s\v\p{Z}\x{85}\x{1c}-\x{1f}?.!']`)

// Predictor maps text to an intent tag
type Predictor interface {
	Predict(text string) (classifier.Prediction, error)
}

// ResponseSource yields the reply strings of a tag
type ResponseSource interface {
	ResponsesFor(tag string) []string
}

// Reply is the handler's result
type Reply struct {
	Response string
	Outcome  models.Outcome
	Tag      string // set when Outcome is matched
}

// ChatHandler is stateless between calls; it only reads from its dependencies.
type ChatHandler struct {
	predictor Predictor
	responses ResponseSource
	stats     stats.Store
	logger    *slog.Logger
	pick      func(n int) int
}

// Option configures a ChatHandler
type Option func(*ChatHandler)

// WithPicker replaces the uniform random response picker.
func WithPicker(pick func(n int) int) Option {
	return func(h *ChatHandler) { h.pick = pick }
}

// WithStats records every outcome in store.
func WithStats(store stats.Store) Option {
	return func(h *ChatHandler) { h.stats = store }
}

func NewChatHandler(predictor Predictor, responses ResponseSource, logger *slog.Logger, opts ...Option) *ChatHandler {
	h := &ChatHandler{
		predictor: predictor,
		responses: responses,
		logger:    logger,
		pick:      rand.IntN,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ProcessMessage runs the validation and classification steps in order;
// the first one that produces a reply wins. It never fails: every problem
// degrades to one of the fixed replies.
func (h *ChatHandler) ProcessMessage(ctx context.Context, message string) Reply {
	h.logger.Info("user message", "message", message)

	reply := h.reply(message)
	if h.stats != nil {
		if err := h.stats.Record(ctx, reply.Outcome, reply.Tag); err != nil {
			h.logger.Warn("failed to record stats", "err", err)
		}
	}
	return reply
}

func (h *ChatHandler) reply(message string) Reply {
	if strings.TrimSpace(message) == "" {
		return Reply{Response: prompts.EmptyMessage, Outcome: models.OutcomeEmpty}
	}

	if ValidateChars(message) != nil {
		return Reply{Response: prompts.InvalidCharsMessage, Outcome: models.OutcomeInvalid}
	}

	prediction, err := h.predictor.Predict(message)
	if err != nil {
		if errors.Is(err, classifier.ErrNoFeatures) {
			h.logger.Info("no confident prediction", "err", err)
		} else {
			h.logger.Error("prediction failed", "err", err)
		}
		return h.fallback()
	}
	h.logger.Info("predicted intent", "tag", prediction.Tag, "score", prediction.Score)

	responses := h.responses.ResponsesFor(prediction.Tag)
	if len(responses) == 0 {
		h.logger.Warn("no responses for predicted tag", "tag", prediction.Tag)
		return h.fallback()
	}

	response := responses[h.pick(len(responses))]
	h.logger.Info("bot response", "tag", prediction.Tag, "response", response)
	return Reply{Response: response, Outcome: models.OutcomeMatched, Tag: prediction.Tag}
}

func (h *ChatHandler) fallback() Reply {
	h.logger.Info("fallback used")
	return Reply{Response: prompts.FallbackMessage, Outcome: models.OutcomeFallback}
}

// ErrInvalidChars is returned by ValidateChars.
var ErrInvalidChars = errors.New("message contains disallowed characters")

// ValidateChars reports whether message contains anything outside letters,
// digits, whitespace and ? . ! '
func ValidateChars(message string) error {
	if disallowed.MatchString(message) {
		return ErrInvalidChars
	}
	return nil
}
