package engine

import "time"

// Config holds the engine's generation and retry settings. All values are
// fixed at construction time; a running engine never changes parameters.
type Config struct {
	// Model is the backend model identifier (required).
	Model string

	// Temperature controls sampling creativity. Default: 0.7.
	Temperature float64

	// TopP is the nucleus-sampling threshold. Default: 0.9.
	TopP float64

	// MaxTokens caps the generated reply length. Default: 512.
	MaxTokens int

	// MaxRetries is the maximum number of completion attempts per call,
	// including the first. Zero or negative means the default of 3.
	MaxRetries int

	// BackoffBase is the delay before the second attempt; subsequent waits
	// double per attempt. Zero means the default of 1s.
	BackoffBase time.Duration
}

// withDefaults returns a copy with zero-value fields filled in.
func (c Config) withDefaults() Config {
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.TopP == 0 {
		c.TopP = 0.9
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	return c
}
