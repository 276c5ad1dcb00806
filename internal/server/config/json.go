package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mdemidovs/secretbin/internal/flagx"
	"github.com/mdemidovs/secretbin/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration, which accepts both duration strings ("24h") and integer
// nanoseconds. Zero values are treated as "not set" and leave the target
// Config untouched.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	BaseURL                      string         `json:"base_url"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ShareTTL                     timex.Duration `json:"share_ttl"`
	ShareAccessLimit             int            `json:"share_access_limit"`
	LegacyEncryptionKey          string         `json:"legacy_encryption_key"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Missing flag means nothing is
// loaded; an unreadable or invalid file panics, since starting with half a
// config is worse than not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.ShareTTL.Duration != 0 {
		config.ShareTTL = time.Duration(c.ShareTTL.Duration)
	}
	if c.ShareAccessLimit != 0 {
		config.ShareAccessLimit = c.ShareAccessLimit
	}
	if c.LegacyEncryptionKey != "" {
		config.LegacyEncryptionKey = c.LegacyEncryptionKey
	}
}
