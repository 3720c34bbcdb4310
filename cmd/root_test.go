package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"analyze", "batch", "history", "show", "delete", "export", "serve", "store"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "landeval", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	for _, name := range []string{"log-level", "db"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "root should have --%s flag", name)
	}
}

func TestApplyGlobalFlags(t *testing.T) {
	t.Cleanup(func() { rootLogLevel, rootDatabaseURL = "", "" })

	c := &config.Config{Log: config.LogConfig{Level: "info"}, Store: config.StoreConfig{DatabaseURL: "landeval.db"}}
	applyGlobalFlags(c)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "landeval.db", c.Store.DatabaseURL)

	rootLogLevel, rootDatabaseURL = "debug", "/tmp/other.db"
	applyGlobalFlags(c)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "/tmp/other.db", c.Store.DatabaseURL)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"features", "boundary", "target-use", "save", "output"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), "analyze should have --%s flag", name)
	}
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, batchCmd.Flags().Lookup("dir"))
}

func TestHistoryCommand_Flags(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestStoreCommand_HasMigrate(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range storeCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
}
