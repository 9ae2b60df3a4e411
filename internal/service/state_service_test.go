package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"linkgate/internal/model"
	"linkgate/internal/repository"
)

func TestDialogState_RoundTripAndClear(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewStateService(store)

	state, err := svc.GetState("conv-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, svc.SetState("conv-1", &model.DialogState{
		Action: "create_link",
		Step:   "await_url",
		Data:   map[string]string{"owner": "owner-1"},
	}))

	state, err = svc.GetState("conv-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "await_url", state.Step)
	assert.Equal(t, "owner-1", state.Data["owner"])

	require.NoError(t, svc.ClearState("conv-1"))
	state, err = svc.GetState("conv-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestDialogState_ExpiresAfterTTL(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	svc := NewStateService(store)

	require.NoError(t, svc.SetState("conv-1", &model.DialogState{Action: "report"}))

	now = now.Add(2 * time.Hour)
	state, err := svc.GetState("conv-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestPreferences_DefaultAndRoundTrip(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewStateService(store)

	pref := svc.GetPreferences("owner-1")
	assert.Equal(t, "square", pref.Style)
	assert.Equal(t, "classic", pref.ColorScheme)

	require.NoError(t, svc.SetPreferences("owner-1", "rounded", "teal"))
	pref = svc.GetPreferences("owner-1")
	assert.Equal(t, "rounded", pref.Style)
	assert.Equal(t, "teal", pref.ColorScheme)
}
