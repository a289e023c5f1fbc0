package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/internal/schedule"
	"github.com/nerrad567/gray-logic-voice/internal/synonym"
)

func semantics(value string, kv ...string) map[string]item.RawMetadata {
	cfg := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		cfg[kv[i]] = kv[i+1]
	}
	return map[string]item.RawMetadata{"semantics": {Value: value, Config: cfg}}
}

// homeRecords:
//
//	Wohnung
//	├── Esszimmer: Licht_Esszimmer{Lampe_Esszimmer}
//	├── Wohnzimmer: Decke_Wohnzimmer, Temperature_Livingroom, Heizung_Soll, Wohnzimmer_Player
//	└── Schlafzimmer: Lampe_Bett, Anlage{Anlage_An_Aus, Anlage_Volume}
func homeRecords() []item.RawItem {
	return []item.RawItem{
		{Name: "Wohnung", Label: "Wohnung", Type: item.TypeGroup, Metadata: semantics("Location_Indoor_Apartment")},
		{Name: "Esszimmer", Label: "Esszimmer", Type: item.TypeGroup,
			Metadata: semantics("Location_Indoor_Room_DiningRoom", "isPartOf", "Wohnung")},
		{Name: "Wohnzimmer", Label: "Wohnzimmer", Type: item.TypeGroup,
			Metadata: semantics("Location_Indoor_Room_LivingRoom", "isPartOf", "Wohnung")},
		{Name: "Schlafzimmer", Label: "Schlafzimmer", Type: item.TypeGroup,
			Metadata: semantics("Location_Indoor_Room_Bedroom", "isPartOf", "Wohnung")},
		{Name: "Licht_Esszimmer", Label: "Licht Esszimmer", Type: item.TypeGroup,
			Metadata: semantics("Equipment_Lightbulb", "hasLocation", "Esszimmer")},
		{Name: "Lampe_Esszimmer", Label: "Lampe Esszimmer", Type: item.TypeSwitch,
			Metadata: semantics(item.PointControlSwitch, "relatesTo", item.PropertyLight, "isPointOf", "Licht_Esszimmer")},
		{Name: "Lampe_Bett", Label: "Bettlampe", Type: item.TypeSwitch,
			Metadata: semantics(item.PointControlSwitch, "relatesTo", item.PropertyLight, "hasLocation", "Schlafzimmer")},
		{Name: "Decke_Wohnzimmer", Label: "Deckenlicht", Type: item.TypeSwitch,
			Metadata: semantics(item.PointControl, "relatesTo", item.PropertyLight, "hasLocation", "Wohnzimmer")},
		{Name: "Anlage", Label: "Anlage", Type: item.TypeGroup,
			Metadata: semantics("Equipment_Receiver", "hasLocation", "Schlafzimmer")},
		{Name: "Anlage_An_Aus", Label: "Anlage an/aus", Type: item.TypeSwitch,
			Metadata: semantics(item.PointControlSwitch, "relatesTo", "Property_Power", "isPointOf", "Anlage")},
		{Name: "Anlage_Volume", Label: "Lautstärke", Type: item.TypeDimmer,
			Metadata: semantics(item.PointControl, "relatesTo", "Property_SoundVolume", "isPointOf", "Anlage")},
		{Name: "Temperature_Livingroom", Label: "Temperatur", Type: item.TypeNumber,
			Metadata: semantics(item.PointMeasurement, "relatesTo", item.PropertyTemperature, "hasLocation", "Wohnzimmer")},
		{Name: "Heizung_Soll", Label: "Solltemperatur", Type: item.TypeNumber,
			Metadata: semantics(item.PointControl, "relatesTo", item.PropertyTemperature, "hasLocation", "Wohnzimmer")},
		{Name: "Wohnzimmer_Player", Label: "Musik", Type: item.TypePlayer,
			Metadata: semantics(item.PointControl, "hasLocation", "Wohnzimmer")},
	}
}

func homeIndex() *synonym.Index {
	return synonym.New(map[string]string{
		"Equipment_Lightbulb":             "Licht,Lampe",
		"Equipment_Receiver":              "Anlage",
		"Property_Light":                  "Licht,Helligkeit",
		"Property_Temperature":            "Temperatur",
		"Location_Indoor_Apartment":       "Wohnung",
		"Location_Indoor_Room_DiningRoom": "Esszimmer",
		"Location_Indoor_Room_LivingRoom": "Wohnzimmer",
		"Location_Indoor_Room_Bedroom":    "Schlafzimmer",
	})
}

type stubGateway struct {
	mu     sync.Mutex
	states map[string]string
	posted []string
}

func (g *stubGateway) FetchState(_ context.Context, name string) (string, error) {
	state, ok := g.states[name]
	if !ok {
		return "", fmt.Errorf("no state for %s", name)
	}
	return state, nil
}

func (g *stubGateway) PostCommand(_ context.Context, name, command string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posted = append(g.posted, name+"="+command)
	return nil
}

func (g *stubGateway) sent() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.posted...)
}

type publication struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publication
	handlers  map[string]mqtt.MessageHandler
	notify    chan publication
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		handlers: make(map[string]mqtt.MessageHandler),
		notify:   make(chan publication, 32),
	}
}

func (p *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	pub := publication{topic: topic, payload: payload}
	p.mu.Lock()
	p.published = append(p.published, pub)
	p.mu.Unlock()
	select {
	case p.notify <- pub:
	default:
	}
	return nil
}

func (p *fakePublisher) PublishJSON(topic string, v any, qos byte, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(topic, payload, qos, retained)
}

func (p *fakePublisher) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = handler
	return nil
}

func (p *fakePublisher) on(topic string) []publication {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publication
	for _, pub := range p.published {
		if pub.topic == topic {
			out = append(out, pub)
		}
	}
	return out
}

type scheduled struct {
	command string
	items   []string
	delay   time.Duration
	siteID  string
}

type fakeScheduler struct {
	calls []scheduled
	err   error
}

func (s *fakeScheduler) Schedule(_ context.Context, command string, items []string, delay time.Duration, siteID string) (*schedule.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, scheduled{command, items, delay, siteID})
	return &schedule.Job{ID: schedule.JobID(command, items), Command: command, Items: items}, nil
}

type intentMetric struct {
	intent  string
	success bool
}

type fakeMetrics struct {
	mu    sync.Mutex
	calls []intentMetric
}

func (m *fakeMetrics) WriteIntentMetric(intent, _ string, success bool, _ time.Duration) {
	m.mu.Lock()
	m.calls = append(m.calls, intentMetric{intent, success})
	m.mu.Unlock()
}

type fixture struct {
	gateway   *stubGateway
	store     *item.Store
	publisher *fakePublisher
	assistant *Assistant
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	gw := &stubGateway{states: map[string]string{
		"Temperature_Livingroom": "21.5",
		"Heizung_Soll":           "20.5 °C",
	}}
	store, err := item.NewStore(homeRecords(), item.Options{Index: homeIndex(), Gateway: gw})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if opts.Prefix == "" {
		opts.Prefix = "Alpha200"
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = "schlafzimmer"
	}

	pub := newFakePublisher()
	return &fixture{
		gateway:   gw,
		store:     store,
		publisher: pub,
		assistant: New(pub, func() *item.Store { return store }, opts),
	}
}

// intent builds a message for Alpha200:<name> with custom slot values given
// as name/value pairs.
func intent(name, siteID string, slots ...string) IntentMessage {
	msg := IntentMessage{
		SessionID: "session-1",
		SiteID:    siteID,
		Intent:    Intent{IntentName: "Alpha200:" + name, ConfidenceScore: 0.9},
	}
	for i := 0; i+1 < len(slots); i += 2 {
		raw, _ := json.Marshal(slots[i+1])
		msg.Slots = append(msg.Slots, Slot{
			SlotName: slots[i],
			RawValue: slots[i+1],
			Value:    SlotValue{Kind: "Custom", Value: raw},
		})
	}
	return msg
}

func withDuration(msg IntentMessage, d SlotValue) IntentMessage {
	d.Kind = "Duration"
	msg.Slots = append(msg.Slots, Slot{SlotName: SlotDuration, Value: d})
	return msg
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
