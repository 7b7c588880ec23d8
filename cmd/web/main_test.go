package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["register"])
	assert.True(t, names["attempts"])
}

func TestRegisterMismatchSendsNothing(t *testing.T) {
	t.Setenv("APP_CONFIG", "/nonexistent/config.json")

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"register", "-u", "alice", "-p", "secret123", "--confirm", "secret124"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "passwords do not match")
}
