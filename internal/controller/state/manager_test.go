package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_LoginDialog(t *testing.T) {
	sm := NewManager()
	assert.Equal(t, StateNone, sm.GetState(1))

	sm.SetState(1, StateLoginEmail)
	sm.Update(1, func(d *UserData) {
		d.LoginEmail = "pat@example.com"
		d.State = StateLoginPassword
	})

	data := sm.Get(1)
	assert.Equal(t, StateLoginPassword, data.State)
	assert.Equal(t, "pat@example.com", data.LoginEmail)

	sm.ClearState(1)
	assert.Equal(t, UserData{}, sm.Get(1))
}

func TestManager_SetNoneDropsEntry(t *testing.T) {
	sm := NewManager()
	sm.SetState(1, StateRatingComment)
	sm.SetState(1, StateNone)
	assert.Empty(t, sm.states)

	sm.Update(2, func(d *UserData) { d.State = StateNone })
	assert.Empty(t, sm.states)
}
