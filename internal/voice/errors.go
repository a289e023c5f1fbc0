package voice

import "errors"

var (
	// ErrInvalidIntent is returned when an intent payload cannot be decoded.
	ErrInvalidIntent = errors.New("voice: invalid intent message")

	// ErrQueueFull is returned when an intent arrives while the queue is full.
	ErrQueueFull = errors.New("voice: intent queue full")

	// ErrSoundFile is returned when the success sound cannot be read.
	ErrSoundFile = errors.New("voice: cannot read sound file")
)
