package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshal(t *testing.T) {
	t.Parallel()

	input := []byte("log_level: debug\nlog_format: json\nmode: binary\nrow_limit: 5\n")
	var cfg Config
	require.NoError(t, yaml.Unmarshal(input, &cfg))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "binary", cfg.Mode)
	require.NotNil(t, cfg.RowLimit)
	assert.EqualValues(t, 5, *cfg.RowLimit)
}

func TestConfigZeroDistinguishesUnset(t *testing.T) {
	t.Parallel()

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("mode: ascii\n"), &cfg))

	assert.Equal(t, "ascii", cfg.Mode)
	assert.Nil(t, cfg.RowLimit, "row_limit absent should stay nil, not zero")
}

func TestLoggerFromConfig(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, loggerFromConfig(Config{LogFormat: "json", LogLevel: "debug"}))
	assert.NotNil(t, loggerFromConfig(Config{}))
	assert.NotNil(t, loggerFromConfig(Config{LogLevel: "nonsense"}))
}
