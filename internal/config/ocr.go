package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/ocr"
)

// LoadOCRConfig loads Cloud Vision configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or MAPPER_ env vars)
// 2. Direct environment variables (GOOGLE_APPLICATION_CREDENTIALS, GOOGLE_VISION_API_KEY)
// 3. Default values
func LoadOCRConfig() (*ocr.Config, error) {
	config := ocr.DefaultConfig()

	if v := viper.GetString("ocr.credentials_file"); v != "" {
		config.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("ocr.api_key"); v != "" {
		config.APIKey = v
	}
	if v := viper.GetString("ocr.endpoint"); v != "" {
		config.Endpoint = v
	}
	if v := viper.GetInt("ocr.max_pdf_pages"); v > 0 {
		config.MaxPDFPages = v
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
