package nds

// Option configures parsing an image.
type Option func(*romConfig)

type romConfig struct {
	verifyChecksum bool
}

// WithVerifyChecksum verifies the header CRC while parsing. By default
// the checksum is not checked and the caller accepts the risk of a
// corrupt header.
func WithVerifyChecksum() Option {
	return func(c *romConfig) {
		c.verifyChecksum = true
	}
}

// ExtractOption configures an Extract call.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	workers   int
	overwrite bool
}

// ExtractWithWorkers sets the number of workers for the parallel batches.
// Values < 0 force serial processing. Zero uses one worker per available
// CPU.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithOverwrite controls whether existing files are replaced.
// Overwriting is the default; with overwrite disabled, existing files are
// skipped rather than reported as failures.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}
