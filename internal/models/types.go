package models

// Intent is one entry of the definitions file.
type Intent struct {
	Tag       string   `json:"tag" yaml:"tag"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Responses []string `json:"responses" yaml:"responses"`
}

// Definitions is the top-level shape of the definitions file
type Definitions struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}

// Example is a single (text, label) training pair
type Example struct {
	Text string
	Tag  string
}

// ChatRequest is the NATS request payload
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by both HTTP and NATS
type ChatResponse struct {
	Response string  `json:"response"`
	Error    *string `json:"error,omitempty"`
}

// Outcome describes which branch of the request handler produced a reply
type Outcome string

// Outcome constants
const (
	OutcomeEmpty    Outcome = "empty"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeMatched  Outcome = "matched"
	OutcomeFallback Outcome = "fallback"
)

// Error codes
const (
	ErrorParseError = "PARSE_ERROR"
)
