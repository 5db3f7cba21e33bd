package app_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/app"
	"onboard/internal/testutils"
)

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := suite.AppConfig()

	// Adjust MigrationPath for test context
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(b)
	cfg.MigrationPath = fmt.Sprintf("file://%s/../../migrations", basepath)

	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, deps)
	assert.NotNil(t, deps.DB)
	defer deps.Close()

	// Verify migration: the documents table must exist
	var exists bool
	err = deps.DB.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'documents')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "documents table should exist")

	// Verify Weaviate connectivity through the aggregate endpoint
	count, err := deps.Store.CountChunks(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
