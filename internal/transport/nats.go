package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/avvvet/intentbot/internal/config"
	"github.com/avvvet/intentbot/internal/handlers"
	"github.com/avvvet/intentbot/internal/models"
	"github.com/avvvet/intentbot/internal/prompts"
	"github.com/nats-io/nats.go"
)

// NATSTransport answers chat requests on a NATS subject with the same
// handler as POST /chat.
type NATSTransport struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	config  *config.Config
	handler *handlers.ChatHandler
	logger  *slog.Logger
}

func NewNATSTransport(cfg *config.Config, handler *handlers.ChatHandler, logger *slog.Logger) (*NATSTransport, error) {
	// Connect to NATS
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS server", "url", cfg.NatsURL)

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
		logger:  logger,
	}, nil
}

func (nt *NATSTransport) Start() error {
	sub, err := nt.conn.Subscribe(nt.config.NatsSubject, nt.handleChatRequest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsSubject, err)
	}
	nt.sub = sub

	nt.logger.Info("subscribed to subject", "subject", nt.config.NatsSubject)
	return nil
}

func (nt *NATSTransport) handleChatRequest(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	data := ReplyFor(ctx, nt.handler, msg.Data, nt.logger)
	if err := msg.Respond(data); err != nil {
		nt.logger.Error("failed to send NATS reply", "err", err)
	}
}

// ReplyFor decodes a ChatRequest, runs it through handler and encodes the
// ChatResponse. A malformed request gets the empty-message prompt plus an
// error code.
func ReplyFor(ctx context.Context, handler *handlers.ChatHandler, data []byte, logger *slog.Logger) []byte {
	var request models.ChatRequest
	var response models.ChatResponse

	if err := json.Unmarshal(data, &request); err != nil {
		logger.Warn("error parsing NATS request", "err", err)
		code := models.ErrorParseError
		response = models.ChatResponse{Response: prompts.EmptyMessage, Error: &code}
	} else {
		reply := handler.ProcessMessage(ctx, request.Message)
		response = models.ChatResponse{Response: reply.Response}
	}

	out, err := json.Marshal(response)
	if err != nil {
		// ChatResponse only holds strings; this cannot fail.
		logger.Error("failed to marshal NATS reply", "err", err)
		return nil
	}
	return out
}

func (nt *NATSTransport) Close() error {
	if nt.sub != nil {
		if err := nt.sub.Unsubscribe(); err != nil {
			nt.logger.Warn("failed to unsubscribe", "err", err)
		}
	}
	if nt.conn != nil {
		if err := nt.conn.Drain(); err != nil {
			nt.conn.Close()
			return fmt.Errorf("failed to drain NATS connection: %w", err)
		}
		nt.logger.Info("NATS connection closed")
	}
	return nil
}
