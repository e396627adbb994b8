package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteGate_AllowList(t *testing.T) {
	gate := NewRouteGate(nil)

	assert.True(t, gate.IsSyncAllowed("/"))
	assert.True(t, gate.IsSyncAllowed("/dashboard"))
	assert.True(t, gate.IsSyncAllowed("/dashboard/"))
	assert.True(t, gate.IsSyncAllowed("/settings"))

	assert.False(t, gate.IsSyncAllowed("/login"))
	assert.False(t, gate.IsSyncAllowed("/reports/pdf"))
	assert.False(t, gate.IsSyncAllowed(""))
	assert.False(t, gate.IsSyncAllowed("   "))
	assert.False(t, gate.IsSyncAllowed("/dashboard/detail"))
}

func TestRouteGate_CustomList(t *testing.T) {
	gate := NewRouteGate([]string{"/overview", ""})
	assert.True(t, gate.IsSyncAllowed("/overview"))
	assert.False(t, gate.IsSyncAllowed("/dashboard"))
	assert.False(t, gate.IsSyncAllowed(""), "empty entry in the list must not open the gate")
}
