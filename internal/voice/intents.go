package voice

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/item"
)

// Replies.
const (
	msgNotLoaded       = "Die Geräteliste von openHAB ist noch nicht geladen."
	msgUnknownDevice   = "Ich habe nicht verstanden, welches Gerät du %s möchtest."
	msgUnknownLocation = "Ich habe keinen Ort mit der Bezeichnung %s gefunden."
	msgNotUnique       = "Deine Anfrage war nicht eindeutig genug."
	msgNoDevice        = "Ich habe kein Gerät gefunden, welches zu deiner Anfrage passt."
	msgNotDelivered    = "Ich konnte openHAB nicht erreichen."
	msgSwitched        = "Ich habe %s %s."
	msgUnknownTemp     = "Die Temperatur in %s ist unbekannt."
	msgTemperature     = "Die Temperatur in %s beträgt %s Grad."
	msgNoTempSensor    = "Ich habe keinen Temperatursensor in %s gefunden."
	msgUnknownProperty = "Ich habe nicht verstanden, welche Eigenschaft verändert werden soll."
	msgLightSwitched   = "Ich habe die Beleuchtung in %s %s."
	msgSetPoint        = "Ich habe die gewünschte Temperatur in %s auf %s Grad eingestellt."
	msgChanged         = "Ich habe %s in %s %s."
	msgCannotChange    = "Ich habe keine Möglichkeit gefunden, um %s in %s zu %s."
	msgNotImplemented  = "Diese Funktionalität ist aktuell nicht implementiert."
	msgNoPlayer        = "Ich habe kein Gerät gefunden, an dem ich die Wiedergabe ändern kann."
	msgNothingToRepeat = "Ich habe noch nichts gesagt."
	msgUnknownState    = "Ich habe nicht verstanden, ob ich ein- oder ausschalten soll."
	msgUnknownDuration = "Ich habe nicht verstanden, wann ich schalten soll."
	msgScheduled       = "Ich werde %s in %s %s."
	msgScheduleFailed  = "Ich konnte den Auftrag nicht speichern."
)

const (
	commandOn       = "ON"
	commandOff      = "OFF"
	commandIncrease = "INCREASE"
	commandDecrease = "DECREASE"

	verbOn     = "eingeschaltet"
	verbOff    = "ausgeschaltet"
	verbRaised = "erhöht"
	verbLess   = "verringert"

	// Property slot values with dedicated handling.
	propertyBrightness  = "helligkeit"
	propertyTemperature = "temperatur"

	setPointStep = 1.0
)

func (a *Assistant) intentIs(msg IntentMessage, name string) bool {
	return msg.Intent.IntentName == a.qualified(name)
}

// switchOnOff switches the named devices. A request without room that
// matches several devices is retried in the room of the satellite.
func (a *Assistant) switchOnOff(ctx context.Context, store *item.Store, msg IntentMessage) result {
	command, verb, infinitive := commandOff, verbOff, "ausschalten"
	if a.intentIs(msg, "switchDeviceOn") {
		command, verb, infinitive = commandOn, verbOn, "einschalten"
	}

	relevant, res, ok := a.resolveDevices(store, msg, infinitive)
	if !ok {
		return res
	}

	report := store.SendCommand(ctx, store.SwitchTargets(relevant), command)
	if len(report.Delivered) == 0 && len(report.Failed) > 0 {
		return failure(msgNotDelivered)
	}
	return success(msgSwitched, describe(relevant), verb)
}

// resolveDevices resolves the device slots of msg. When ok is false, res is
// the reply to send.
func (a *Assistant) resolveDevices(store *item.Store, msg IntentMessage, infinitive string) (relevant []*item.Item, res result, ok bool) {
	var room *item.Item
	if spoken, found := msg.FirstSlot(SlotRoom); found {
		if room = store.FindLocation(spoken); room == nil {
			return nil, failure(msgUnknownLocation, spoken), false
		}
	}

	devices := msg.SlotValues(SlotDevice)
	if len(devices) == 0 {
		return nil, failure(msgUnknownDevice, infinitive), false
	}

	relevant = store.ResolveAny(devices, item.Query{Location: room})

	// Without a room, more than one match is only accepted within the
	// satellite's own room.
	if room == nil && len(relevant) > 1 {
		a.logger.Debug("ambiguous request, retrying with satellite room", "site_id", msg.SiteID)
		siteRoom := store.FindLocation(a.roomForSite(msg.SiteID))
		if siteRoom == nil {
			return nil, failure(msgNotUnique), false
		}
		relevant = store.ResolveAny(devices, item.Query{Location: siteRoom})
		if len(relevant) == 0 {
			return nil, failure(msgNotUnique), false
		}
	}

	if len(relevant) == 0 {
		return nil, failure(msgNoDevice), false
	}
	return relevant, result{}, true
}

func (a *Assistant) getTemperature(ctx context.Context, store *item.Store, msg IntentMessage) result {
	spoken := a.spokenRoom(msg)
	room := store.FindLocation(spoken)
	if room == nil {
		return failure(msgUnknownLocation, spoken)
	}

	sensors := store.ItemsWithAttributes(item.AttributeQuery{
		Semantics: item.PointMeasurement,
		RelatesTo: item.PropertyTemperature,
		Location:  room,
	})
	if len(sensors) == 0 {
		return failure(msgNoTempSensor, spoken)
	}

	state, ok := store.State(ctx, sensors[0])
	if !ok {
		return info(msgUnknownTemp, spoken)
	}
	return info(msgTemperature, spoken, strings.ReplaceAll(state, ".", ","))
}

func (a *Assistant) increaseDecrease(ctx context.Context, store *item.Store, msg IntentMessage) result {
	increase := a.intentIs(msg, "increaseItem")

	spoken := a.spokenRoom(msg)
	room := store.FindLocation(spoken)
	if room == nil {
		return failure(msgUnknownLocation, spoken)
	}

	property, ok := msg.FirstSlot(SlotProperty)
	if !ok {
		return failure(msgUnknownProperty)
	}

	switch strings.ToLower(property) {
	case propertyBrightness:
		lights := store.ItemsWithAttributes(item.AttributeQuery{
			Semantics: item.PointControl,
			RelatesTo: item.PropertyLight,
			Type:      item.TypeSwitch,
			Location:  room,
		})
		if len(lights) > 0 {
			command, verb := commandOff, verbOff
			if increase {
				command, verb = commandOn, verbOn
			}
			store.SendCommand(ctx, lights, command)
			return success(msgLightSwitched, spoken, verb)
		}

	case propertyTemperature:
		setPoints := store.ItemsWithAttributes(item.AttributeQuery{
			Semantics: item.PointControl,
			Type:      item.TypeNumber,
			Location:  room,
		})
		if len(setPoints) > 0 {
			return a.stepSetPoint(ctx, store, setPoints[0], spoken, increase)
		}

	default:
		dimmers := store.Resolve(property, item.Query{Location: room, Type: item.TypeDimmer})
		if len(dimmers) > 0 {
			command, verb := commandDecrease, verbLess
			if increase {
				command, verb = commandIncrease, verbRaised
			}
			store.SendCommand(ctx, dimmers, command)
			return success(msgChanged, property, spoken, verb)
		}
	}

	infinitive := "verringern"
	if increase {
		infinitive = "erhöhen"
	}
	return failure(msgCannotChange, property, spoken, infinitive)
}

// stepSetPoint moves a temperature set-point by one degree.
func (a *Assistant) stepSetPoint(ctx context.Context, store *item.Store, setPoint *item.Item, spoken string, increase bool) result {
	state, ok := store.State(ctx, setPoint)
	if !ok {
		return info(msgUnknownTemp, spoken)
	}
	// Quantity states carry a unit: "21.5 °C".
	fields := strings.Fields(state)
	if len(fields) == 0 {
		return info(msgUnknownTemp, spoken)
	}
	current, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		a.logger.Warn("set-point state is not numeric", "item", setPoint.Name, "state", state)
		return info(msgUnknownTemp, spoken)
	}

	target := current - setPointStep
	if increase {
		target = current + setPointStep
	}
	value := strconv.FormatFloat(target, 'f', -1, 64)
	store.SendCommand(ctx, []*item.Item{setPoint}, value)
	return success(msgSetPoint, spoken, strings.ReplaceAll(value, ".", ","))
}

func (a *Assistant) setValue(context.Context, *item.Store, IntentMessage) result {
	return info(msgNotImplemented)
}

func (a *Assistant) player(ctx context.Context, store *item.Store, msg IntentMessage) result {
	spoken := a.spokenRoom(msg)
	room := store.FindLocation(spoken)
	if room == nil {
		return failure(msgUnknownLocation, spoken)
	}

	players := store.ItemsWithAttributes(item.AttributeQuery{
		Semantics: item.PointControl,
		Type:      item.TypePlayer,
		Location:  room,
	})
	if len(players) == 0 {
		return failure(msgNoPlayer)
	}

	var command, reply string
	switch {
	case a.intentIs(msg, "playMedia"):
		command, reply = "PLAY", "Ich habe die Wiedergabe in %s fortgesetzt."
	case a.intentIs(msg, "pauseMedia"):
		command, reply = "PAUSE", "Ich habe die Wiedergabe in %s pausiert."
	case a.intentIs(msg, "nextMedia"):
		command, reply = "NEXT", "Die aktuelle Wiedergabe in %s wird übersprungen."
	default:
		command, reply = "PREVIOUS", "In %s geht es zurück zur vorherigen Wiedergabe."
	}

	store.SendCommand(ctx, players, command)
	return success(reply, spoken)
}

func (a *Assistant) repeatLast(context.Context, *item.Store, IntentMessage) result {
	last := a.LastMessage()
	if last == "" {
		return info(msgNothingToRepeat)
	}
	return info("%s", last)
}

// scheduleCommand switches devices on or off after the duration slot.
func (a *Assistant) scheduleCommand(ctx context.Context, store *item.Store, msg IntentMessage) result {
	if a.opts.Scheduler == nil {
		return info(msgNotImplemented)
	}

	state, _ := msg.FirstSlot(SlotState)
	var command, infinitive string
	switch strings.ToLower(state) {
	case "an", "ein", "on":
		command, infinitive = commandOn, "einschalten"
	case "aus", "off":
		command, infinitive = commandOff, "ausschalten"
	default:
		return failure(msgUnknownState)
	}

	delay, ok := msg.DurationSlot(SlotDuration)
	if !ok || delay <= 0 {
		return failure(msgUnknownDuration)
	}

	relevant, res, ok := a.resolveDevices(store, msg, infinitive)
	if !ok {
		return res
	}

	targets := store.SwitchTargets(relevant)
	if len(targets) == 0 {
		return failure(msgNoDevice)
	}
	names := make([]string, 0, len(targets))
	for _, it := range targets {
		names = append(names, it.Name)
	}

	if _, err := a.opts.Scheduler.Schedule(ctx, command, names, delay, msg.SiteID); err != nil {
		a.logger.Error("scheduling command failed", "command", command, "error", err)
		return failure(msgScheduleFailed)
	}
	return success(msgScheduled, describe(relevant), spokenDuration(delay), infinitive)
}

// describe joins item descriptions: "a", "a und b", "a, b und c".
func describe(items []*item.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Description())
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " und " + parts[len(parts)-1]
	}
}

// spokenDuration renders d in German, e.g. "1 Stunde und 5 Minuten".
func spokenDuration(d time.Duration) string {
	units := []struct {
		size           time.Duration
		singular, many string
	}{
		{24 * time.Hour, "Tag", "Tagen"},
		{time.Hour, "Stunde", "Stunden"},
		{time.Minute, "Minute", "Minuten"},
		{time.Second, "Sekunde", "Sekunden"},
	}

	var parts []string
	for _, u := range units {
		n := int(d / u.size)
		if n == 0 {
			continue
		}
		d -= time.Duration(n) * u.size
		word := u.many
		if n == 1 {
			word = u.singular
		}
		parts = append(parts, strconv.Itoa(n)+" "+word)
	}
	switch len(parts) {
	case 0:
		return "0 Sekunden"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " und " + parts[len(parts)-1]
	}
}
