package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRunMigration_RejectsUnknownAction(t *testing.T) {
	err := runMigration("sideways", "postgres://unused", zaptest.NewLogger(t))
	assert.ErrorContains(t, err, `unsupported action "sideways"`)
}

func TestValidAction(t *testing.T) {
	for _, action := range []string{"up", "down", "drop", "version"} {
		assert.True(t, validAction(action), action)
	}
	assert.False(t, validAction("redo"))
}
