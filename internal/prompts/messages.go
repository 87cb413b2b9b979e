package prompts

// Fixed user-facing replies. These strings are part of the public contract of
// POST /chat and must not change.
const (
	EmptyMessage = "Please enter a valid message."

	InvalidCharsMessage = "You're entering wrong characters. Please avoid special symbols."

	FallbackMessage = "Sorry, I didn't understand that. Can you try rephrasing?"
)
