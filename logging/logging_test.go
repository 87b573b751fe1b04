package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config_FromYAML(t *testing.T) {
	cfg, err := ConfigFromYAML([]byte("level: debug\ndevelopment: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Development)
	assert.Empty(t, cfg.File)
}

func Test_Config_FromYAML_Invalid(t *testing.T) {
	_, err := ConfigFromYAML([]byte("level: [not, a, string"))
	assert.Error(t, err)
}

func Test_Config_Build(t *testing.T) {
	logger, err := Config{Level: "warn"}.Build()
	require.NoError(t, err)
	logger.Info("dropped below warn")
}

func Test_Config_Build_BadLevel(t *testing.T) {
	_, err := Config{Level: "chatty"}.Build()
	assert.Error(t, err)
}

func Test_Discard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Info("nothing happens")
	})
}
