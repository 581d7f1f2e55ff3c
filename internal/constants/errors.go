package constants

import "errors"

// Configuration errors.
var (
	ErrConfigKeyUnknown = errors.New("unknown configuration key")
	ErrNoHostConfigured = errors.New("no host configured; run 'libcal config set host <host>'")
)

// CLI errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidAnswer       = errors.New("answers must be given as qN=value")
	ErrInvalidBooking      = errors.New("bookings must be given as item_id[:seat_id]@time")
	ErrInvalidID           = errors.New("invalid id")
)
