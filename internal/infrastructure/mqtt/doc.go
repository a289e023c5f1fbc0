// Package mqtt connects the voice bridge to the voice platform's MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees, raw or JSON encoded
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) on graylogic/voice/status
//
// The voice platform (Snips or Rhasspy in Hermes mode) publishes recognised
// intents on hermes/intent/<name>. Replies, vocabulary injection and sound
// registration are published back on the hermes/ topics built by Topics.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllIntents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("intent %s", mqtt.Topics{}.IntentName(topic))
//	        return nil
//	    })
//
//	err = client.PublishJSON(mqtt.Topics{}.EndSession(), reply, 1, false)
package mqtt
