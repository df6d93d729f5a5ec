package model

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ScopeKey identifies one ordering queue. Jobs with different keys never interact in
// priority arithmetic.
type ScopeKey string

// String implements fmt.Stringer.
func (k ScopeKey) String() string { return string(k) }

// ScopePolicy selects which job attributes form the scope key.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ScopePolicy string

const (
	// ScopeByTechnician keeps one queue per responsible technician.
	ScopeByTechnician ScopePolicy = "technician"
	// ScopeByStatus keeps one queue per job status.
	ScopeByStatus ScopePolicy = "status"
	// ScopeByTechnicianStatus keeps one queue per technician and status pair.
	ScopeByTechnicianStatus ScopePolicy = "technician_status"
)

// Valid returns true if the policy is known.
func (p ScopePolicy) Valid() bool {
	return p == ScopeByTechnician || p == ScopeByStatus || p == ScopeByTechnicianStatus
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (p *ScopePolicy) UnmarshalText(text []byte) error {
	v := ScopePolicy(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ScopePolicy: %q", string(text))
	}
	*p = v
	return nil
}

// KeyFor derives the scope key of job under the policy.
func (p ScopePolicy) KeyFor(job *Job) ScopeKey {
	return p.Key(job.OwnerID, job.Status)
}

// Key derives the scope key from the attributes the policy cares about.
func (p ScopePolicy) Key(ownerID int64, status JobStatus) ScopeKey {
	tech := "technician:" + strconv.FormatInt(ownerID, 10)
	switch p {
	case ScopeByStatus:
		return ScopeKey("status:" + string(status))
	case ScopeByTechnicianStatus:
		return ScopeKey(tech + "/status:" + string(status))
	default:
		return ScopeKey(tech)
	}
}

// ScopeStats summarizes the open jobs of a scope as read inside a transaction.
type ScopeStats struct {
	Scope       ScopeKey `json:"scope"        db:"scope"`
	OpenCount   int      `json:"open_count"   db:"open_count"`
	MaxPriority int      `json:"max_priority" db:"max_priority"`
}

// Dense reports whether the counters are consistent with a contiguous 1..N ordering.
// Duplicates can still hide behind equal counters; use ScopeHealth for a full check.
func (s ScopeStats) Dense() bool {
	return s.OpenCount == s.MaxPriority
}

// ScopeHealth is the result of verifying that a scope's open priorities are exactly 1..N.
type ScopeHealth struct {
	Scope       ScopeKey `json:"scope"`
	OpenCount   int      `json:"open_count"`
	MaxPriority int      `json:"max_priority"`
	// Duplicates lists ranks held by more than one open job.
	Duplicates []int `json:"duplicates,omitempty"`
	// Gaps lists ranks in 1..N held by no open job.
	Gaps []int `json:"gaps,omitempty"`
	// OutOfRange lists ranks below 1 or above N.
	OutOfRange []int `json:"out_of_range,omitempty"`
	Consistent bool  `json:"consistent"`
}

// Corrupt reports damage that closing jobs can never cause: a rank shared by two open
// jobs or a rank below 1. Gaps and the ranks above N that come with them are the normal
// result of closes and are repaired by compaction.
func (h ScopeHealth) Corrupt() bool {
	return len(h.Duplicates) > 0 || slices.ContainsFunc(h.OutOfRange, func(p int) bool { return p < 1 })
}

// NewScopeHealth evaluates the open priorities of a scope.
func NewScopeHealth(scope ScopeKey, priorities []int) ScopeHealth {
	h := ScopeHealth{Scope: scope, OpenCount: len(priorities)}
	n := len(priorities)
	seen := make(map[int]int, n)
	for _, p := range priorities {
		seen[p]++
		if p > h.MaxPriority {
			h.MaxPriority = p
		}
	}
	for p, c := range seen {
		if c > 1 {
			h.Duplicates = append(h.Duplicates, p)
		}
		if p < 1 || p > n {
			h.OutOfRange = append(h.OutOfRange, p)
		}
	}
	for p := 1; p <= n; p++ {
		if seen[p] == 0 {
			h.Gaps = append(h.Gaps, p)
		}
	}
	sort.Ints(h.Duplicates)
	sort.Ints(h.OutOfRange)
	h.Consistent = len(h.Duplicates) == 0 && len(h.Gaps) == 0 && len(h.OutOfRange) == 0
	return h
}

// CompactResult reports what a compaction changed.
type CompactResult struct {
	Scope   ScopeKey `json:"scope"`
	Open    int      `json:"open"`
	Changed int      `json:"changed"`
}

// JobRank is the ordering-relevant projection of an open job.
type JobRank struct {
	ID       int64 `db:"id"`
	Priority int   `db:"priority"`
}
