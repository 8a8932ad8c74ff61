package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/config"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
)

func TestOpenStoresMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}

	st, err := openStores(cfg, logger.NewNop())
	require.NoError(t, err)
	defer st.Close()

	assert.Nil(t, st.db)
	assert.NotNil(t, st.notes)
	assert.NotNil(t, st.jobs)
}

func TestOpenStoresUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "mongodb"}}

	_, err := openStores(cfg, logger.NewNop())
	assert.EqualError(t, err, `unsupported storage driver "mongodb"`)
}
