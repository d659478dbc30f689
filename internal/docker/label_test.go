package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildParseLabels verifies ParseLabels inverts BuildLabels.
func TestBuildParseLabels(t *testing.T) {
	createdAt := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)
	labels := BuildLabels("test_env", "python:3-slim", true, createdAt)

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy])

	info, err := ParseLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, "test_env", info.Name)
	assert.Equal(t, "python:3-slim", info.Image)
	assert.True(t, info.Ephemeral)
	assert.Equal(t, createdAt, info.CreatedAt)
}

// TestBuildLabels_TimestampUTC verifies timestamps are normalized to UTC
// regardless of the host timezone.
func TestBuildLabels_TimestampUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	createdAt := time.Date(2026, 8, 30, 22, 0, 0, 0, loc)

	labels := BuildLabels("x", "img", false, createdAt)
	assert.Equal(t, "2026-08-30T12:00:00Z", labels[LabelCreatedAt])
}

// TestParseLabels_NotManaged verifies containers without the managed-by
// label are rejected, since discovery must never claim foreign containers.
func TestParseLabels_NotManaged(t *testing.T) {
	_, err := ParseLabels(map[string]string{
		"com.docker.compose.project": "someapp",
		LabelName:                    "test_env",
	})
	require.Error(t, err)
}

// TestParseLabels_MissingName verifies the name label is required.
func TestParseLabels_MissingName(t *testing.T) {
	_, err := ParseLabels(map[string]string{LabelManagedBy: ManagedByValue})
	require.Error(t, err)
}

// TestParseLabels_Degradation verifies optional labels degrade gracefully:
// a malformed timestamp yields a zero time instead of an error.
func TestParseLabels_Degradation(t *testing.T) {
	info, err := ParseLabels(map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      "test_env",
		LabelCreatedAt: "not-a-timestamp",
	})
	require.NoError(t, err)
	assert.True(t, info.CreatedAt.IsZero())
	assert.False(t, info.Ephemeral)
	assert.Empty(t, info.Image)
}
