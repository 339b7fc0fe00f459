package sos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationPermission_GrantFlow(t *testing.T) {
	p := NewLocationPermission()
	assert.Equal(t, PermissionIdle, p.State())
	assert.Nil(t, p.Location())

	require.NoError(t, p.Prompt())
	assert.Equal(t, PermissionPrompting, p.State())

	require.NoError(t, p.Grant(27.7, 85.3))
	assert.Equal(t, PermissionGranted, p.State())
	require.NotNil(t, p.Location())
	assert.Equal(t, 27.7, p.Location().Latitude)
}

func TestLocationPermission_DenyAndRetry(t *testing.T) {
	p := NewLocationPermission()
	require.NoError(t, p.Prompt())
	require.NoError(t, p.Deny("User denied Geolocation"))
	assert.Equal(t, PermissionDenied, p.State())
	assert.Equal(t, "User denied Geolocation", p.Reason())

	require.NoError(t, p.Prompt())
	assert.Equal(t, PermissionPrompting, p.State())
	assert.Empty(t, p.Reason())

	require.NoError(t, p.Grant(0, 0))
	assert.Equal(t, PermissionGranted, p.State())
}

func TestLocationPermission_InvalidTransitions(t *testing.T) {
	p := NewLocationPermission()
	assert.ErrorIs(t, p.Grant(1, 1), ErrInvalidTransition)
	assert.ErrorIs(t, p.Deny("no"), ErrInvalidTransition)

	require.NoError(t, p.Prompt())
	assert.ErrorIs(t, p.Prompt(), ErrInvalidTransition)

	assert.ErrorIs(t, p.Grant(200, 0), ErrInvalidCoordinates)
	assert.Equal(t, PermissionPrompting, p.State(), "bad coordinates keep the prompt open")

	require.NoError(t, p.Grant(10, 10))
	assert.ErrorIs(t, p.Prompt(), ErrInvalidTransition)
	assert.ErrorIs(t, p.Deny("late"), ErrInvalidTransition)
	assert.Equal(t, PermissionGranted, p.State())
}
