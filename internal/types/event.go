package types

// Wire field names of the notification event envelope. Producers may attach
// arbitrary additional fields; the relay must not drop them on retry, which
// is why Event is an open map rather than a closed struct.
const (
	FieldText          = "text"
	FieldHumanizedText = "humanized_text"
	FieldLevel         = "level"
)

// FallbackText is the display text used when an event carries neither a
// humanized text nor an original text.
const FallbackText = "No message provided"

// DefaultLevel is the severity assumed when an event has no level field.
const DefaultLevel = "info"

// Event is a single notification event as decoded from a queue message body.
// Known fields have typed accessors; everything else is preserved opaquely.
type Event map[string]any

// stringField returns the value of key if it is present and a string.
func (e Event) stringField(key string) string {
	s, _ := e[key].(string)
	return s
}

// Text returns the original notification text, or "" if absent.
func (e Event) Text() string { return e.stringField(FieldText) }

// HumanizedText returns the AI-humanized text, or "" if absent.
func (e Event) HumanizedText() string { return e.stringField(FieldHumanizedText) }

// Level returns the severity tag, defaulting to "info".
func (e Event) Level() string {
	if lvl := e.stringField(FieldLevel); lvl != "" {
		return lvl
	}
	return DefaultLevel
}

// DisplayText selects the text to present: the humanized text when present,
// otherwise the original text, otherwise FallbackText.
func (e Event) DisplayText() string {
	if t := e.HumanizedText(); t != "" {
		return t
	}
	if t := e.Text(); t != "" {
		return t
	}
	return FallbackText
}

// DeliveryResult is the classified outcome of a single webhook delivery
// attempt. Delivered is true iff the endpoint answered HTTP 200.
type DeliveryResult struct {
	Delivered  bool
	StatusCode int
	Reason     string
}
