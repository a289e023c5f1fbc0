package item

import "errors"

// Domain errors for the item package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, item.ErrGateway) {
//	    // openHAB unreachable, tell the user
//	}
var (
	// ErrGateway is returned when the item snapshot cannot be fetched.
	ErrGateway = errors.New("item: gateway failure")

	// ErrInvalidRecord is returned for a raw record missing name or type.
	ErrInvalidRecord = errors.New("item: invalid record")

	// ErrDuplicateItem is returned for a raw record whose name is already loaded.
	ErrDuplicateItem = errors.New("item: duplicate name")

	// ErrInvalidModel is returned for an unknown containment model.
	ErrInvalidModel = errors.New("item: invalid containment model")

	// ErrNoAttributes is returned when the alias model is selected but the
	// source cannot provide external attributes.
	ErrNoAttributes = errors.New("item: attribute source required")

	// ErrNoGateway is recorded for commands dispatched by a Store without a gateway.
	ErrNoGateway = errors.New("item: no command gateway")
)
