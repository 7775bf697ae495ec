package config

import (
	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/server"
)

// LoadServerConfig reads server.* settings.
func LoadServerConfig() server.Config {
	config := server.Config{
		Addr:           viper.GetString("server.addr"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		MaxUploadBytes: server.DefaultMaxUploadBytes,
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if mb := viper.GetInt64("server.max_upload_mb"); mb > 0 {
		config.MaxUploadBytes = mb << 20
	}
	return config
}
