package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":              "www.example:9000",
		"database_dsn":                    "identity.db",
		"access_token_secret":             "a_secret",
		"refresh_token_secret":            "r_secret",
		"reset_token_secret":              "w_secret",
		"access_token_validity_duration":  "15m",
		"refresh_token_validity_duration": "24h",
		"reset_token_validity_duration":   "10m",
		"otp_validity_duration":           "10m",
		"author_upgrade_secret":           "upgrade_secret",
		"bcrypt_cost":                     12,
		"smtp_host":                       "mail.example",
		"smtp_port":                       587,
		"smtp_user":                       "mailer",
		"smtp_password":                   "mailerpw",
		"smtp_from":                       "auth@example.com",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "identity.db", cfg.DatabaseDSN)
		assert.Equal(t, "a_secret", cfg.AccessTokenSecret)
		assert.Equal(t, "r_secret", cfg.RefreshTokenSecret)
		assert.Equal(t, "w_secret", cfg.ResetTokenSecret)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 10*time.Minute, cfg.ResetTokenValidityDuration)
		assert.Equal(t, 10*time.Minute, cfg.OtpValidityDuration)
		assert.Equal(t, "upgrade_secret", cfg.AuthorUpgradeSecret)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "mail.example", cfg.SMTPHost)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.Equal(t, "mailer", cfg.SMTPUser)
		assert.Equal(t, "mailerpw", cfg.SMTPPassword)
		assert.Equal(t, "auth@example.com", cfg.SMTPFrom)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrGRPC:  "defaults:1234",
			DatabaseDSN:       "identity.db",
			AccessTokenSecret: "key",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "identity.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.AccessTokenSecret)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
