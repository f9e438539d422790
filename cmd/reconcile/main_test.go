package main

import (
	"testing"

	"borewell/internal/config"
	"borewell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParty(t *testing.T) {
	party, err := parseParty("vendor:42")
	require.NoError(t, err)
	assert.Equal(t, models.Vendor(42), party)

	for _, bad := range []string{"vendor", "vendor:x", "merchant:1", "user:0"} {
		_, err := parseParty(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunRejectsBadPartyBeforeConnecting(t *testing.T) {
	err := run(config.Settings{}, "merchant:1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid -party")
}
