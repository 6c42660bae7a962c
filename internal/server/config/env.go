package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a
// local .env file first if one exists. Unset variables leave the current
// value in place.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString(&config.EndpointAddrHTTP, "ARTLEDGER_HTTP_ADDR")
	setString(&config.DatabaseDSN, "ARTLEDGER_DATABASE_DSN")
	setString(&config.SecretKey, "ARTLEDGER_SECRET_KEY")
	setString(&config.ServiceAPIKeyHash, "ARTLEDGER_SERVICE_API_KEY_HASH")
	setDuration(&config.TokenValidityDuration, "ARTLEDGER_TOKEN_VALIDITY")
	setDuration(&config.PresignTTL, "ARTLEDGER_PRESIGN_TTL")
	setString(&config.S3RootUser, "ARTLEDGER_S3_ROOT_USER")
	setString(&config.S3RootPassword, "ARTLEDGER_S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "ARTLEDGER_S3_BUCKET")
	setString(&config.S3Region, "ARTLEDGER_S3_REGION")
	setString(&config.S3BaseEndpoint, "ARTLEDGER_S3_BASE_ENDPOINT")
}
