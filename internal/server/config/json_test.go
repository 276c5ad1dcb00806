package config

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := []byte(`{
		"endpoint_addr_http": ":9090",
		"base_url": "https://secrets.example.com",
		"database_dsn": "postgres://u:p@h:5432/db",
		"secret_key": "k",
		"access_token_validity_duration": "30m",
		"refresh_token_validity_duration": "720h",
		"share_ttl": "48h",
		"share_access_limit": 3,
		"legacy_encryption_key": "00ff"
	}`)

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if c.EndpointAddrHTTP != ":9090" {
		t.Fatalf("unexpected address: %q", c.EndpointAddrHTTP)
	}
	if c.AccessTokenValidityDuration.Duration != 30*time.Minute {
		t.Fatalf("unexpected access token validity: %v", c.AccessTokenValidityDuration.Duration)
	}
	if c.ShareTTL.Duration != 48*time.Hour {
		t.Fatalf("unexpected share ttl: %v", c.ShareTTL.Duration)
	}
	if c.ShareAccessLimit != 3 {
		t.Fatalf("unexpected access limit: %d", c.ShareAccessLimit)
	}
}
