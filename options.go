package actionstream

import (
	"time"

	"go.uber.org/zap"
)

// HandlerFailurePolicy controls how the dispatcher reacts when a packet or
// node-batch handler returns a non-nil error.
type HandlerFailurePolicy int

const (
	// PolicyHalt treats a handler failure as fatal: the parser latches its
	// absorbing error state. This is the default.
	PolicyHalt HandlerFailurePolicy = iota
	// PolicyContinue logs the failure to the error handler and keeps
	// processing subsequent packets.
	PolicyContinue
)

// Config holds the tunables recognised by the parser.
type Config struct {
	// MaxBufferBytes caps the retained byte buffer. Default 100 MiB.
	MaxBufferBytes int
	// MaxPacketBytes caps a single packet's staged size. Default 10 MiB.
	MaxPacketBytes int
	// MaxBatchCount caps node descriptors per tree-batch flush. Default 1000.
	MaxBatchCount int
	// MaxBatchBytes caps bytes per tree-batch flush. Default 10 MiB.
	MaxBatchBytes int
	// Diagnostics enables periodic progress log lines.
	Diagnostics bool
	// ProgressInterval is the minimum gap between progress lines. Default 5s.
	ProgressInterval time.Duration
	// ProgressPacketInterval emits a progress line every this many packets,
	// independent of ProgressInterval. Default 500.
	ProgressPacketInterval int64
	// HandlerFailurePolicy governs reaction to handler errors.
	HandlerFailurePolicy HandlerFailurePolicy
	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

const (
	defaultMaxBufferBytes   = 100 << 20
	defaultMaxPacketBytes   = 10 << 20
	defaultMaxBatchCount    = 1000
	defaultMaxBatchBytes    = 10 << 20
	defaultProgressInterval       = 5 * time.Second
	defaultProgressPacketInterval = 500
)

func defaultConfig() Config {
	return Config{
		MaxBufferBytes:       defaultMaxBufferBytes,
		MaxPacketBytes:       defaultMaxPacketBytes,
		MaxBatchCount:        defaultMaxBatchCount,
		MaxBatchBytes:        defaultMaxBatchBytes,
		Diagnostics:          false,
		ProgressInterval:       defaultProgressInterval,
		ProgressPacketInterval: defaultProgressPacketInterval,
		HandlerFailurePolicy:   PolicyHalt,
		Logger:               zap.NewNop(),
	}
}

// Option configures a Parser, either at construction or via Configure.
type Option func(*Config)

// WithMaxBufferBytes overrides the retained-buffer cap.
func WithMaxBufferBytes(n int) Option {
	return func(c *Config) { c.MaxBufferBytes = n }
}

// WithMaxPacketBytes overrides the single-packet staging cap.
func WithMaxPacketBytes(n int) Option {
	return func(c *Config) { c.MaxPacketBytes = n }
}

// WithMaxBatchCount overrides the tree-batch descriptor-count threshold.
func WithMaxBatchCount(n int) Option {
	return func(c *Config) { c.MaxBatchCount = n }
}

// WithMaxBatchBytes overrides the tree-batch byte threshold.
func WithMaxBatchBytes(n int) Option {
	return func(c *Config) { c.MaxBatchBytes = n }
}

// WithDiagnostics enables or disables periodic progress log lines.
func WithDiagnostics(enabled bool) Option {
	return func(c *Config) { c.Diagnostics = enabled }
}

// WithProgressInterval overrides the gap between progress lines.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Config) { c.ProgressInterval = d }
}

// WithProgressPacketInterval overrides the packet-count progress cadence.
func WithProgressPacketInterval(n int64) Option {
	return func(c *Config) { c.ProgressPacketInterval = n }
}

// WithHandlerFailurePolicy overrides how handler errors are treated.
func WithHandlerFailurePolicy(p HandlerFailurePolicy) Option {
	return func(c *Config) { c.HandlerFailurePolicy = p }
}

// WithLogger installs a structured logger. A nil logger is replaced with
// zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.Logger = logger
	}
}
