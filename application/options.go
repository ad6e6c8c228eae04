package application

import (
	"log/slog"

	evbus "github.com/asaskevich/EventBus"
)

// settings collects everything NewLedgerService can be configured with.
type settings struct {
	difficulty  int
	workers     int
	maxAttempts uint64
	bus         evbus.Bus
	logger      *slog.Logger
}

// Option configures a LedgerService at construction time.
type Option func(settings) settings

// WithDifficulty sets the number of leading zero hex digits every mined
// block's hash must carry. Higher values make rounds slower.
func WithDifficulty(difficulty int) Option {
	return func(s settings) settings {
		s.difficulty = difficulty
		return s
	}
}

// WithMiningWorkers stripes each round's nonce search across n goroutines.
// Values below 2 keep the search sequential.
func WithMiningWorkers(n int) Option {
	return func(s settings) settings {
		s.workers = n
		return s
	}
}

// WithMaxAttempts caps the nonce search of every round. When the cap runs out
// the round fails with a mining timeout and nothing is appended. Zero means
// no cap.
func WithMaxAttempts(n uint64) Option {
	return func(s settings) settings {
		s.maxAttempts = n
		return s
	}
}

// WithEventBus publishes round results on the given bus. See events.go for
// the topics and their payloads.
func WithEventBus(bus evbus.Bus) Option {
	return func(s settings) settings {
		s.bus = bus
		return s
	}
}

// WithLogger routes the service's structured log output. Without it the
// service stays silent.
func WithLogger(logger *slog.Logger) Option {
	return func(s settings) settings {
		s.logger = logger
		return s
	}
}
