package item

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-voice/internal/synonym"
)

// semantic builds semantics metadata from key/value config pairs.
func semantic(value string, kv ...string) map[string]RawMetadata {
	cfg := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		cfg[kv[i]] = kv[i+1]
	}
	return map[string]RawMetadata{namespaceSemantics: {Value: value, Config: cfg}}
}

func withSynonyms(md map[string]RawMetadata, value string) map[string]RawMetadata {
	if md == nil {
		md = make(map[string]RawMetadata)
	}
	md[namespaceSynonyms] = RawMetadata{Value: value}
	return md
}

// apartmentRecords is a small semantic model:
//
//	Wohnung
//	├── Esszimmer: Licht_Esszimmer{Lampe_Esszimmer}, Lampe_Vitrine
//	├── Wohnzimmer: Temperature_Livingroom, Wohnzimmer_Player
//	└── Schlafzimmer: Lampe_Bett, Anlage{Anlage_An_Aus, Anlage_Volume}, Temperature_Bedroom
//
// plus Fernseher, which has no semantics.
func apartmentRecords() []RawItem {
	return []RawItem{
		{Name: "Wohnung", Label: "Wohnung", Type: TypeGroup, Metadata: semantic("Location_Indoor_Apartment")},
		{Name: "Esszimmer", Label: "Esszimmer", Type: TypeGroup,
			Metadata: withSynonyms(semantic("Location_Indoor_Room_DiningRoom", "isPartOf", "Wohnung"), "esszimmer")},
		{Name: "Wohnzimmer", Label: "Wohnzimmer", Type: TypeGroup,
			Metadata: semantic("Location_Indoor_Room_LivingRoom", "isPartOf", "Wohnung")},
		{Name: "Schlafzimmer", Label: "Schlafzimmer", Type: TypeGroup,
			Metadata: semantic("Location_Indoor_Room_Bedroom", "isPartOf", "Wohnung")},
		{Name: "Werkstatt", Label: "Werkstatt", Type: TypeGroup, Metadata: semantic("Location_Indoor_Room")},
		{Name: "Licht_Esszimmer", Label: "Licht Esszimmer", Type: TypeGroup,
			Metadata: semantic("Equipment_Lightbulb", "hasLocation", "Esszimmer")},
		{Name: "Lampe_Esszimmer", Label: "Lampe Esszimmer", Type: TypeSwitch,
			Metadata: semantic(PointControlSwitch, "relatesTo", PropertyLight, "isPointOf", "Licht_Esszimmer")},
		{Name: "Lampe_Vitrine", Label: "Vitrine", Type: TypeSwitch,
			Metadata: semantic(PointControlSwitch, "relatesTo", PropertyLight, "hasLocation", "Esszimmer")},
		{Name: "Lampe_Bett", Label: "Bettlampe", Type: TypeSwitch,
			Metadata: semantic(PointControlSwitch, "relatesTo", PropertyLight, "hasLocation", "Schlafzimmer")},
		{Name: "Anlage", Label: "Anlage", Type: TypeGroup,
			Metadata: semantic("Equipment_Receiver", "hasLocation", "Schlafzimmer")},
		{Name: "Anlage_An_Aus", Label: "Anlage an/aus", Type: TypeSwitch,
			Metadata: semantic(PointControlSwitch, "relatesTo", "Property_Power", "isPointOf", "Anlage")},
		{Name: "Anlage_Volume", Label: "Lautstärke", Type: TypeDimmer,
			Metadata: semantic(PointControl, "relatesTo", "Property_SoundVolume", "isPointOf", "Anlage")},
		{Name: "Temperature_Livingroom", Label: "Temperatur", Type: TypeNumber,
			Metadata: semantic(PointMeasurement, "relatesTo", PropertyTemperature, "hasLocation", "Wohnzimmer")},
		{Name: "Temperature_Bedroom", Label: "Temperatur", Type: TypeNumber,
			Metadata: semantic(PointMeasurement, "relatesTo", PropertyTemperature, "hasLocation", "Schlafzimmer")},
		{Name: "Wohnzimmer_Player", Label: "Musik", Type: TypePlayer,
			Metadata: semantic(PointControl, "hasLocation", "Wohnzimmer")},
		{Name: "Fernseher", Label: "Fernseher", Type: TypeSwitch, Metadata: withSynonyms(nil, "TV, Glotze")},
	}
}

func apartmentIndex() *synonym.Index {
	return synonym.New(map[string]string{
		"Equipment_Lightbulb":             "Licht,Lampe",
		"Equipment_Receiver":              "Anlage,Stereoanlage",
		"Property_Light":                  "Licht,Helligkeit",
		"Property_Temperature":            "Temperatur",
		"Location_Indoor_Apartment":       "Wohnung",
		"Location_Indoor_Room_DiningRoom": "Esszimmer",
		"Location_Indoor_Room_LivingRoom": "Wohnzimmer",
		"Location_Indoor_Room_Bedroom":    "Schlafzimmer",
	})
}

func newApartmentStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Index == nil {
		opts.Index = apartmentIndex()
	}
	s, err := NewStore(apartmentRecords(), opts)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func mustItem(t *testing.T, s *Store, name string) *Item {
	t.Helper()
	it, ok := s.Item(name)
	if !ok {
		t.Fatalf("item %s not loaded", name)
	}
	return it
}

func names(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func equalNames(got []*Item, want ...string) bool {
	g := names(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

type fakeSource struct {
	records []RawItem
	attrs   map[string][]Attribute
	err     error
}

func (f *fakeSource) FetchItems(context.Context) ([]RawItem, error) {
	return f.records, f.err
}

type fakeAttributeSource struct {
	fakeSource
	attrErr error
}

func (f *fakeAttributeSource) FetchAttributes(context.Context) (map[string][]Attribute, error) {
	return f.attrs, f.attrErr
}

type fakeGateway struct {
	mu       sync.Mutex
	states   map[string]string
	failFor  map[string]bool
	posted   []string
	stateErr error
}

var errFakeDelivery = errors.New("fake: delivery failed")

func (g *fakeGateway) FetchState(_ context.Context, name string) (string, error) {
	if g.stateErr != nil {
		return "", g.stateErr
	}
	return g.states[name], nil
}

func (g *fakeGateway) PostCommand(_ context.Context, name, command string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[name] {
		return errFakeDelivery
	}
	g.posted = append(g.posted, name+"="+command)
	return nil
}

type recorded struct {
	name    string
	command string
	err     error
}

type fakeRecorder struct {
	entries []recorded
}

func (r *fakeRecorder) RecordCommand(_ context.Context, name, command string, err error) {
	r.entries = append(r.entries, recorded{name: name, command: command, err: err})
}
