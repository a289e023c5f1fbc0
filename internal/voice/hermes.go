package voice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Slot names used by the intents.
const (
	SlotDevice   = "device"
	SlotRoom     = "room"
	SlotProperty = "property"
	SlotState    = "state"
	SlotDuration = "duration"
)

// IntentMessage is the payload of hermes/intent/<name>.
type IntentMessage struct {
	SessionID string `json:"sessionId"`
	SiteID    string `json:"siteId"`
	Input     string `json:"input"`
	Intent    Intent `json:"intent"`
	Slots     []Slot `json:"slots"`
}

// Intent names the recognised intent.
type Intent struct {
	IntentName      string  `json:"intentName"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Slot is one filled slot of an intent.
type Slot struct {
	SlotName string    `json:"slotName"`
	RawValue string    `json:"rawValue"`
	Entity   string    `json:"entity"`
	Value    SlotValue `json:"value"`
}

// SlotValue holds either a custom value or a duration.
type SlotValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`

	Weeks   int `json:"weeks,omitempty"`
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

// String returns the value as text. Numbers are formatted without exponent.
func (v SlotValue) String() string {
	if len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(v.Value, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Trim(string(v.Value), `"`)
}

// Duration returns the duration of a Duration slot value.
func (v SlotValue) Duration() time.Duration {
	const day = 24 * time.Hour
	return time.Duration(v.Weeks)*7*day +
		time.Duration(v.Days)*day +
		time.Duration(v.Hours)*time.Hour +
		time.Duration(v.Minutes)*time.Minute +
		time.Duration(v.Seconds)*time.Second
}

// ParseIntent decodes an intent payload.
func ParseIntent(payload []byte) (IntentMessage, error) {
	var msg IntentMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return IntentMessage{}, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	if msg.Intent.IntentName == "" {
		return IntentMessage{}, fmt.Errorf("%w: missing intent name", ErrInvalidIntent)
	}
	return msg, nil
}

// SlotValues returns the text values of every slot named name, in order.
func (m IntentMessage) SlotValues(name string) []string {
	var out []string
	for _, s := range m.Slots {
		if s.SlotName != name {
			continue
		}
		if v := s.Value.String(); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FirstSlot returns the first value of slot name.
func (m IntentMessage) FirstSlot(name string) (string, bool) {
	values := m.SlotValues(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// DurationSlot returns the first Duration value of slot name.
func (m IntentMessage) DurationSlot(name string) (time.Duration, bool) {
	for _, s := range m.Slots {
		if s.SlotName == name && s.Value.Kind == "Duration" {
			return s.Value.Duration(), true
		}
	}
	return 0, false
}

// EndSession is the payload of hermes/dialogueManager/endSession.
type EndSession struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text,omitempty"`
}

// InjectionRequest is the payload of hermes/injection/perform.
type InjectionRequest struct {
	ID         string               `json:"id"`
	Operations []InjectionOperation `json:"operations"`
}

// InjectionOperation is one ["addFromVanilla", {entity: [values]}] pair.
type InjectionOperation [2]any

// NewInjectionRequest adds values to the entities of the recogniser's
// vanilla vocabulary.
func NewInjectionRequest(entities map[string][]string) InjectionRequest {
	return InjectionRequest{
		ID:         uuid.NewString(),
		Operations: []InjectionOperation{{"addFromVanilla", entities}},
	}
}
