package domain

import "errors"

var (
	// ErrUnsupportedInteraction signals an interaction type the bot does not handle.
	ErrUnsupportedInteraction = errors.New("unsupported interaction type")
	// ErrInvalidInteraction signals a malformed interaction payload.
	ErrInvalidInteraction = errors.New("invalid interaction")
	// ErrPatternSourceError signals that the upstream pattern document could not be obtained.
	ErrPatternSourceError = errors.New("pattern source error")
	// ErrInvalidCommand signals an invalid command schema.
	ErrInvalidCommand = errors.New("invalid command schema")
	// ErrPlatformError signals a failed call to the chat platform API.
	ErrPlatformError = errors.New("platform api error")
)
