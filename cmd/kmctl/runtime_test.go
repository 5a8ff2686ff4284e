package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResult(t *testing.T) {
	value := struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}{Name: "notes", Count: 2, Tags: []string{"a"}}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "json", value))
	assert.JSONEq(t, `{"name":"notes","count":2,"tags":["a"]}`, buf.String())

	buf.Reset()
	require.NoError(t, writeResult(&buf, "yaml", value))
	assert.Contains(t, buf.String(), "name: notes")
	assert.Contains(t, buf.String(), "count: 2")

	assert.Error(t, writeResult(&buf, "xml", value))
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"0", "-1", "abc"} {
		_, err := parseID(raw)
		assert.Error(t, err, raw)
	}
}

func TestMemoryCommandsRoundTrip(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", t.TempDir()+"/kmctl.db")
	t.Setenv("EMBEDDING_PROVIDER", "none")
	t.Setenv("DB_LOG_LEVEL", "silent")

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute(), args)
		return out.String()
	}

	run("migrate")
	created := run("memory", "create", "--path", "/user/prefs", "--content", "prefers tea", "--tag", "food")
	assert.Contains(t, created, `"prefers tea"`)

	listed := run("memory", "list", "--tag", "food")
	assert.Contains(t, listed, `"/user/prefs"`)

	found := run("search", "--mode", "keyword", "--target", "memories", "--text", "TEA")
	assert.Contains(t, found, `"prefers tea"`)

	summary := run("memory", "analytics", "-o", "yaml")
	assert.Contains(t, summary, "total_memories: 1")

	rootCmd.SetArgs([]string{"memory", "sync", t.TempDir()})
	assert.Error(t, rootCmd.Execute(), "memory sync needs an embedding provider")
}
