package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateJoinsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 0
	cfg.MaxGeneratingSessions = 0
	cfg.AllowedUploadTypes = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts")
	assert.Contains(t, err.Error(), "max generating sessions")
	assert.Contains(t, err.Error(), "allowed upload types")
}

func TestUploadTypeAllowedNormalizes(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.uploadTypeAllowed("image/jpg"))
	assert.True(t, cfg.uploadTypeAllowed("IMAGE/PNG; charset=binary"))
	assert.False(t, cfg.uploadTypeAllowed("image/gif"))
	assert.False(t, cfg.uploadTypeAllowed(""))
}
