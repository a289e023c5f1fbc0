// Package voice answers spoken requests coming from a Hermes voice platform.
//
// The platform (Snips, or Rhasspy in Hermes mode) recognises an intent such as
// "Alpha200:switchDeviceOn" with its slots and publishes it on
// hermes/intent/<name>. The Assistant turns the slots into item queries
// against the current item.Store, sends the resulting commands to openHAB
// and closes the dialogue session with a spoken reply, or with a short
// success sound when sound feedback is enabled.
//
// Intents are handled one at a time by a single goroutine, in arrival order.
//
// # Intents
//
//   - switchDeviceOn, switchDeviceOff: switch the named devices, retrying an
//     ambiguous request with the room of the satellite that heard it
//   - getTemperature: read a temperature sensor of a room
//   - increaseItem, decreaseItem: brightness, set-point temperature or any
//     dimmer named by the property slot
//   - playMedia, pauseMedia, nextMedia, previousMedia: media players of a room
//   - scheduleCommand: switch devices on or off after a duration
//   - repeatLastMessage: repeat the last reply
//   - setValue: not supported, answered with a notice
package voice
