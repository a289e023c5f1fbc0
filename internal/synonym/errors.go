package synonym

import "errors"

var (
	// ErrUnknownLanguage is returned when no tag resource exists for a language.
	ErrUnknownLanguage = errors.New("synonym: unknown language")

	// ErrInvalidResource is returned when a tag resource cannot be parsed.
	ErrInvalidResource = errors.New("synonym: invalid resource")
)
