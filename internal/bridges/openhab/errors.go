package openhab

import "errors"

// Sentinel errors for openHAB operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, openhab.ErrNotFound) {
//	    // item does not exist on the server
//	}
var (
	// ErrInvalidURL indicates the configured server URL is unusable.
	ErrInvalidURL = errors.New("openhab: invalid url")

	// ErrRequestFailed indicates a transport error or non-success status.
	ErrRequestFailed = errors.New("openhab: request failed")

	// ErrNotFound indicates the server does not know the item.
	ErrNotFound = errors.New("openhab: item not found")

	// ErrInvalidResponse indicates a response body that cannot be decoded.
	ErrInvalidResponse = errors.New("openhab: invalid response")

	// ErrNoAttributesURL indicates attributes were requested without an attributes URL.
	ErrNoAttributesURL = errors.New("openhab: attributes url not configured")
)
