package mqtt

import "fmt"

// Topic prefixes.
//
// The voice platform speaks the Hermes protocol: intents arrive on
// hermes/intent/<name>, replies and vocabulary go to the dialogue manager
// and the injection service. The bridge announces its own liveness under
// graylogic/voice.
const (
	// TopicPrefixHermes is the base for all voice platform topics.
	TopicPrefixHermes = "hermes"

	// TopicPrefixVoice is the base for the bridge's own topics.
	TopicPrefixVoice = "graylogic/voice"
)

// Topics provides builders for the MQTT topics the bridge uses.
//
//	topics := mqtt.Topics{}
//	topics.Intent("Alpha200:switchDeviceOn")
//	// Returns: "hermes/intent/Alpha200:switchDeviceOn"
type Topics struct{}

// Intent returns the topic a recognised intent is published on.
//
// Example: hermes/intent/Alpha200:switchDeviceOn
func (Topics) Intent(name string) string {
	return fmt.Sprintf("%s/intent/%s", TopicPrefixHermes, name)
}

// AllIntents returns the wildcard for every recognised intent.
//
// Pattern: hermes/intent/#
func (Topics) AllIntents() string {
	return TopicPrefixHermes + "/intent/#"
}

// EndSession returns the topic that closes a dialogue session, optionally
// speaking a final text.
func (Topics) EndSession() string {
	return TopicPrefixHermes + "/dialogueManager/endSession"
}

// InjectionPerform returns the topic that extends the recogniser's entity
// vocabulary.
func (Topics) InjectionPerform() string {
	return TopicPrefixHermes + "/injection/perform"
}

// RegisterSound returns the topic that uploads a WAV file under name.
//
// Example: hermes/tts/registerSound/success
func (Topics) RegisterSound(name string) string {
	return fmt.Sprintf("%s/tts/registerSound/%s", TopicPrefixHermes, name)
}

// Status returns the retained liveness topic of the bridge.
//
// Example: graylogic/voice/status
func (Topics) Status() string {
	return TopicPrefixVoice + "/status"
}

// IntentName extracts the intent name from an intent topic.
// Returns "" if topic is not an intent topic.
func (Topics) IntentName(topic string) string {
	prefix := TopicPrefixHermes + "/intent/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
