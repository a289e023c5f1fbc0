package voice

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/internal/schedule"
)

const (
	// successText makes the platform play the registered success sound.
	successText = "[[sound:success]]"

	// SuccessSoundName is the name the success sound is registered under.
	SuccessSoundName = "success"

	// siteDefault is the siteId of the main satellite.
	siteDefault = "default"

	intentTimeout = 30 * time.Second
	queueSize     = 16
)

// Publisher is the MQTT surface the Assistant needs. mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishJSON(topic string, v any, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Scheduler defers commands. schedule.Scheduler satisfies it.
type Scheduler interface {
	Schedule(ctx context.Context, command string, items []string, delay time.Duration, siteID string) (*schedule.Job, error)
}

// IntentWriter records one metric per handled intent. influxdb.Client
// satisfies it.
type IntentWriter interface {
	WriteIntentMetric(intent, siteID string, success bool, took time.Duration)
}

// Logger defines the logging interface used by the Assistant.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures an Assistant.
type Options struct {
	// Prefix is the intent namespace, e.g. "Alpha200".
	Prefix string

	// DefaultRoom is the room of the "default" satellite.
	DefaultRoom string

	// SiteRooms maps other satellite IDs to rooms. Unmapped IDs are used
	// as room names.
	SiteRooms map[string]string

	// SoundFeedback replies to successful commands with a sound instead of
	// a sentence.
	SoundFeedback bool

	// SuccessSound is the WAV file registered at startup when sound
	// feedback is on.
	SuccessSound string

	// QoS for all publications.
	QoS byte

	// Scheduler enables scheduleCommand. Optional.
	Scheduler Scheduler

	// Metrics receives one point per intent. Optional.
	Metrics IntentWriter

	Logger Logger
}

// outcome classifies a reply for sound feedback.
type outcome int

const (
	// outcomeInfo replies are always spoken.
	outcomeInfo outcome = iota
	outcomeSuccess
	outcomeFailure
)

type result struct {
	outcome outcome
	text    string
}

func info(format string, args ...any) result {
	return result{outcome: outcomeInfo, text: fmt.Sprintf(format, args...)}
}

func success(format string, args ...any) result {
	return result{outcome: outcomeSuccess, text: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) result {
	return result{outcome: outcomeFailure, text: fmt.Sprintf(format, args...)}
}

type handlerFunc func(ctx context.Context, store *item.Store, msg IntentMessage) result

// Assistant handles the intents of one voice platform.
//
// Thread Safety: Run processes intents on a single goroutine. Handle may be
// called directly, but not concurrently with Run.
type Assistant struct {
	pub    Publisher
	store  func() *item.Store
	opts   Options
	logger Logger

	handlers map[string]handlerFunc
	intents  chan IntentMessage

	mu          sync.Mutex
	lastMessage string
}

// New creates an Assistant. store is called for every intent so a refreshed
// item graph is picked up without restarting.
func New(pub Publisher, store func() *item.Store, opts Options) *Assistant {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	a := &Assistant{
		pub:     pub,
		store:   store,
		opts:    opts,
		logger:  opts.Logger,
		intents: make(chan IntentMessage, queueSize),
	}
	a.handlers = map[string]handlerFunc{
		"switchDeviceOn":    a.switchOnOff,
		"switchDeviceOff":   a.switchOnOff,
		"getTemperature":    a.getTemperature,
		"increaseItem":      a.increaseDecrease,
		"decreaseItem":      a.increaseDecrease,
		"setValue":          a.setValue,
		"playMedia":         a.player,
		"pauseMedia":        a.player,
		"nextMedia":         a.player,
		"previousMedia":     a.player,
		"scheduleCommand":   a.scheduleCommand,
		"repeatLastMessage": a.repeatLast,
	}
	return a
}

// IntentNames returns the fully qualified names of the supported intents.
func (a *Assistant) IntentNames() []string {
	out := make([]string, 0, len(a.handlers))
	for name := range a.handlers {
		out = append(out, a.qualified(name))
	}
	return out
}

func (a *Assistant) qualified(name string) string {
	if a.opts.Prefix == "" {
		return name
	}
	return a.opts.Prefix + ":" + name
}

// localName strips the configured prefix. ok is false for foreign intents.
func (a *Assistant) localName(intentName string) (string, bool) {
	if a.opts.Prefix == "" {
		return intentName, true
	}
	rest, found := strings.CutPrefix(intentName, a.opts.Prefix+":")
	return rest, found
}

// Start registers the success sound, injects the item vocabulary and
// subscribes to intents. Messages are queued for Run.
func (a *Assistant) Start() error {
	if a.opts.SoundFeedback && a.opts.SuccessSound != "" {
		if err := a.RegisterSound(SuccessSoundName, a.opts.SuccessSound); err != nil {
			return err
		}
	}

	if err := a.InjectVocabulary(); err != nil {
		a.logger.Warn("vocabulary injection failed", "error", err)
	}

	return a.pub.Subscribe(mqtt.Topics{}.AllIntents(), a.opts.QoS, a.enqueue)
}

// enqueue is the MQTT handler. It only decodes and queues; it never blocks
// the delivery goroutine, so a full queue drops the intent.
func (a *Assistant) enqueue(topic string, payload []byte) error {
	msg, err := ParseIntent(payload)
	if err != nil {
		return fmt.Errorf("intent on %s: %w", topic, err)
	}
	if _, ok := a.localName(msg.Intent.IntentName); !ok {
		return nil
	}
	select {
	case a.intents <- msg:
		return nil
	default:
		a.logger.Warn("intent queue full, dropping intent",
			"intent", msg.Intent.IntentName, "session", msg.SessionID)
		return ErrQueueFull
	}
}

// Run handles queued intents one at a time until ctx is cancelled.
func (a *Assistant) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.intents:
			a.Handle(ctx, msg)
		}
	}
}

// Handle answers one intent and closes its session.
//
// Intents outside the configured prefix and unknown intents are ignored.
// Returns the text sent to the platform, or "" if nothing was sent.
func (a *Assistant) Handle(ctx context.Context, msg IntentMessage) string {
	name, ok := a.localName(msg.Intent.IntentName)
	if !ok {
		return ""
	}
	handler, ok := a.handlers[name]
	if !ok {
		a.logger.Debug("ignoring unknown intent", "intent", msg.Intent.IntentName)
		return ""
	}

	ctx, cancel := context.WithTimeout(audit.WithSource(ctx, audit.SourceVoice), intentTimeout)
	defer cancel()

	start := time.Now()
	var res result
	if store := a.store(); store == nil {
		res = failure(msgNotLoaded)
	} else {
		res = handler(ctx, store, msg)
	}
	took := time.Since(start)

	a.mu.Lock()
	a.lastMessage = res.text
	a.mu.Unlock()

	text := res.text
	if a.opts.SoundFeedback && res.outcome == outcomeSuccess {
		text = successText
	}

	a.logger.Info("intent handled",
		"intent", name,
		"site_id", msg.SiteID,
		"success", res.outcome != outcomeFailure,
		"duration", took,
	)
	if a.opts.Metrics != nil {
		a.opts.Metrics.WriteIntentMetric(name, msg.SiteID, res.outcome != outcomeFailure, took)
	}

	reply := EndSession{SessionID: msg.SessionID, Text: text}
	if err := a.pub.PublishJSON(mqtt.Topics{}.EndSession(), reply, a.opts.QoS, false); err != nil {
		a.logger.Error("failed to end session", "session_id", msg.SessionID, "error", err)
	}
	return text
}

// LastMessage returns the text of the last reply.
func (a *Assistant) LastMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastMessage
}

// InjectVocabulary publishes the device and room names of the current item
// graph to the recogniser.
func (a *Assistant) InjectVocabulary() error {
	store := a.store()
	if store == nil {
		return nil
	}
	vocab := store.Vocabulary()
	req := NewInjectionRequest(map[string][]string{
		SlotDevice: vocab.Devices,
		SlotRoom:   vocab.Locations,
	})
	if err := a.pub.PublishJSON(mqtt.Topics{}.InjectionPerform(), req, a.opts.QoS, false); err != nil {
		return fmt.Errorf("injecting vocabulary: %w", err)
	}
	a.logger.Info("vocabulary injected", "devices", len(vocab.Devices), "rooms", len(vocab.Locations))
	return nil
}

// RegisterSound uploads the WAV file at path under name.
func (a *Assistant) RegisterSound(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSoundFile, err)
	}
	if err := a.pub.Publish(mqtt.Topics{}.RegisterSound(name), data, a.opts.QoS, false); err != nil {
		return fmt.Errorf("registering sound %s: %w", name, err)
	}
	return nil
}

// roomForSite returns the room name of the satellite that heard msg.
func (a *Assistant) roomForSite(siteID string) string {
	if siteID == siteDefault || siteID == "" {
		return a.opts.DefaultRoom
	}
	if room, ok := a.opts.SiteRooms[siteID]; ok {
		return room
	}
	return siteID
}

// spokenRoom returns the room slot, or the satellite's room.
func (a *Assistant) spokenRoom(msg IntentMessage) string {
	if room, ok := msg.FirstSlot(SlotRoom); ok {
		return room
	}
	return a.roomForSite(msg.SiteID)
}
