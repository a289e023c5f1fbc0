package item

import (
	"context"
	"fmt"
	"strings"
)

// Semantic class prefixes.
const (
	ClassLocation  = "Location"
	ClassEquipment = "Equipment"
	ClassPoint     = "Point"
	ClassProperty  = "Property"
)

// Item types referenced by the voice handlers.
const (
	TypeSwitch = "Switch"
	TypeDimmer = "Dimmer"
	TypeNumber = "Number"
	TypePlayer = "Player"
	TypeGroup  = "Group"
)

// Semantic tags referenced by the voice handlers.
const (
	PointControl       = "Point_Control"
	PointControlSwitch = "Point_Control_Switch"
	PointMeasurement   = "Point_Measurement"

	PropertyLight       = "Property_Light"
	PropertyTemperature = "Property_Temperature"
)

// NullState is the state openHAB reports for an item without a value.
const NullState = "NULL"

// Model selects how containment in a location is computed.
type Model string

// Containment models.
const (
	ModelSemantic Model = "semantic"
	ModelGroup    Model = "group"
	ModelAlias    Model = "alias"
)

// ParseModel validates a containment model name. An empty name is semantic.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModelSemantic, nil
	case ModelSemantic, ModelGroup, ModelAlias:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidModel, s)
	}
}

// Item is one addressable entity: a point, an equipment, or a location.
//
// Items are shared by the Store; callers treat them as read-only.
type Item struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type"`

	// Semantics is the Location_*, Equipment_* or Point_* tag, if any.
	Semantics string `json:"semantics,omitempty"`
	// RelatesTo is the Property_* concept of a point.
	RelatesTo string `json:"relatesTo,omitempty"`

	HasLocation string `json:"hasLocation,omitempty"`
	IsPartOf    string `json:"isPartOf,omitempty"`
	IsPointOf   string `json:"isPointOf,omitempty"`

	// HasPoints is derived from IsPointOf at load time.
	HasPoints []string `json:"hasPoints,omitempty"`

	Synonyms   []string `json:"synonyms,omitempty"`
	GroupNames []string `json:"groupNames,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	// Location is true for items that model a room or zone.
	Location bool `json:"location"`
}

// Description returns the label, or the name when there is none.
func (i *Item) Description() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Name
}

// IsLocation reports whether the item models a room or zone.
func (i *Item) IsLocation() bool {
	return i.Location
}

// IsEquipment reports whether the item is semantically an equipment.
func (i *Item) IsEquipment() bool {
	return strings.HasPrefix(i.Semantics, ClassEquipment)
}

// IsPoint reports whether the item is semantically a point.
func (i *Item) IsPoint() bool {
	return strings.HasPrefix(i.Semantics, ClassPoint)
}

// HasSynonym reports whether s (already lower-cased) is one of the item's synonyms.
func (i *Item) HasSynonym(s string) bool {
	return containsString(i.Synonyms, s)
}

// HasTag reports whether the item carries a plain openHAB tag, ignoring case.
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (i *Item) String() string {
	return i.Name
}

// Query narrows a resolution. Zero values are wildcards.
type Query struct {
	// Location restricts results to items contained in it.
	Location *Item
	// Type restricts results to items of this item type.
	Type string
}

// AttributeQuery is an exact attribute filter. All set fields are ANDed.
type AttributeQuery struct {
	Semantics string
	RelatesTo string
	PointOf   string
	Type      string
	Location  *Item
}

// Attribute is one external annotation of an item (alias model).
type Attribute struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Attribute types.
const (
	AttributeAlias    = "alias"
	AttributeLocation = "location"
)

// Source provides the raw item snapshot.
type Source interface {
	FetchItems(ctx context.Context) ([]RawItem, error)
}

// AttributeSource provides external item attributes for the alias model.
type AttributeSource interface {
	FetchAttributes(ctx context.Context) (map[string][]Attribute, error)
}

// Gateway reads state from and delivers commands to single items.
type Gateway interface {
	FetchState(ctx context.Context, name string) (string, error)
	PostCommand(ctx context.Context, name, command string) error
}

// Recorder is told about every per-item command outcome.
type Recorder interface {
	RecordCommand(ctx context.Context, name, command string, err error)
}

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
