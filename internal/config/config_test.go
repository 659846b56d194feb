package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Realtime.HandshakeTimeout)
	assert.Equal(t, 256, cfg.Realtime.SendBufferSize)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestListsAreSplitAndTrimmed(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{
		"ALLOWED_ORIGINS": " http://a.local, ,http://b.local ",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"missing secret":   {"AUTH_JWT_SECRET": ""},
		"zero handshake":   {"REALTIME_HANDSHAKE_TIMEOUT": "0s"},
		"zero send buffer": {"REALTIME_SEND_BUFFER": 0},
		"kafka no topic":   {"KAFKA_BROKERS": "k1:9092", "KAFKA_ACTIVITY_TOPIC": ""},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(overrides))
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warning"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "nonsense"}.SlogLevel())
}
