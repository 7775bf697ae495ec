// Package ocr extracts invoice text with Google Cloud Vision.
package ocr

import (
	"fmt"
	"os"

	"github.com/Veraticus/invoice-mapper/internal/common"
)

// MaxInlinePDFPages is the most pages Vision annotates in one inline
// files:annotate request, and the page count it reads by default.
const MaxInlinePDFPages = 5

// Config holds the configuration for the Vision extractor.
type Config struct {
	ServiceAccountPath string
	APIKey             string
	Endpoint           string
	MaxPDFPages        int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPDFPages: MaxInlinePDFPages,
	}
}

// LoadFromEnv fills credentials from the environment only when none are
// configured. GOOGLE_VISION_API_KEY takes precedence over
// GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) LoadFromEnv() {
	if c.ServiceAccountPath != "" || c.APIKey != "" {
		return
	}
	if key := os.Getenv("GOOGLE_VISION_API_KEY"); key != "" {
		c.APIKey = key
		return
	}
	c.ServiceAccountPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}

// Validate checks if the configuration is valid. With neither credential set,
// application default credentials are used.
func (c *Config) Validate() error {
	if c.ServiceAccountPath != "" && c.APIKey != "" {
		return fmt.Errorf("%w: multiple Vision authentication methods configured; use either a service account or an API key", common.ErrInvalidConfig)
	}
	if c.MaxPDFPages <= 0 || c.MaxPDFPages > MaxInlinePDFPages {
		return fmt.Errorf("%w: max PDF pages must be between 1 and %d", common.ErrInvalidConfig, MaxInlinePDFPages)
	}
	return nil
}
