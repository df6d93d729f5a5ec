package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopePolicy_Key(t *testing.T) {
	assert.Equal(t, ScopeKey("technician:12"), ScopeByTechnician.Key(12, JobStatusPending))
	assert.Equal(t, ScopeKey("status:on_hold"), ScopeByStatus.Key(12, JobStatusOnHold))
	assert.Equal(t, ScopeKey("technician:12/status:reopened"), ScopeByTechnicianStatus.Key(12, JobStatusReopened))

	job := &Job{OwnerID: 3, Status: JobStatusInProgress}
	assert.Equal(t, ScopeKey("technician:3"), ScopeByTechnician.KeyFor(job))
}

func TestScopePolicy_UnmarshalText(t *testing.T) {
	var p ScopePolicy
	require.NoError(t, p.UnmarshalText([]byte(" Technician_Status ")))
	assert.Equal(t, ScopeByTechnicianStatus, p)
	assert.Error(t, p.UnmarshalText([]byte("region")))
}

func TestNewScopeHealth(t *testing.T) {
	tests := []struct {
		name       string
		priorities []int
		consistent bool
		dups       []int
		gaps       []int
		outOfRange []int
	}{
		{name: "empty", priorities: nil, consistent: true},
		{name: "dense", priorities: []int{3, 1, 2}, consistent: true},
		{name: "gap left by close", priorities: []int{1, 3}, gaps: []int{2}, outOfRange: []int{3}},
		{name: "duplicate", priorities: []int{1, 2, 2}, dups: []int{2}, gaps: []int{3}},
		{name: "negative parked value", priorities: []int{-5, 1}, gaps: []int{2}, outOfRange: []int{-5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewScopeHealth("technician:1", tt.priorities)
			assert.Equal(t, tt.consistent, h.Consistent)
			assert.Equal(t, tt.dups, h.Duplicates)
			assert.Equal(t, tt.gaps, h.Gaps)
			assert.Equal(t, tt.outOfRange, h.OutOfRange)
			assert.Equal(t, len(tt.priorities), h.OpenCount)
		})
	}
}

func TestScopeHealth_Corrupt(t *testing.T) {
	assert.False(t, NewScopeHealth("technician:1", []int{1, 2, 3}).Corrupt())
	assert.False(t, NewScopeHealth("technician:1", []int{1, 3, 7}).Corrupt(), "gaps from closes are expected")
	assert.True(t, NewScopeHealth("technician:1", []int{1, 2, 2}).Corrupt())
	assert.True(t, NewScopeHealth("technician:1", []int{-4, 1}).Corrupt(), "a parked rank left behind")
	assert.True(t, NewScopeHealth("technician:1", []int{0, 1}).Corrupt())
}

func TestBuildInitPageState(t *testing.T) {
	state := BuildInitPageState(
		[]LookupValue{{ID: 1, Domain: LookupJobStatus, Code: "pending", Label: "Pending"}},
		[]ClientRef{{ID: 5, Name: "Client A"}},
	)
	require.Len(t, state.Items, 2)
	assert.Equal(t, LookupJobStatus, state.Items[0].Domain)
	assert.Equal(t, "Client A", state.Items[1].Name)
	assert.Empty(t, state.Items[1].Domain)
}
