package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// JobSelectorType names how a list request picks its jobs.
type JobSelectorType string

const (
	// JobSelectorMe lists the jobs owned by the identified technician.
	JobSelectorMe JobSelectorType = "ME"
	// JobSelectorTechnician is an alias of JobSelectorMe for admin views.
	JobSelectorTechnician JobSelectorType = "TECHNICIAN"
	// JobSelectorClient lists the jobs of one client.
	JobSelectorClient JobSelectorType = "CLIENT"
	// JobSelectorStatus lists the jobs in one status.
	JobSelectorStatus JobSelectorType = "STATUS"
	// JobSelectorScope lists the jobs of one scope key.
	JobSelectorScope JobSelectorType = "SCOPE"
	// JobSelectorAll lists every job.
	JobSelectorAll JobSelectorType = "ALL"
)

// JobListSelector is the body of a list request.
type JobListSelector struct {
	Type       JobSelectorType `json:"type"`
	Identifier string          `json:"identifier"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// JobListOptions groups repository filters for listing jobs. Nil filters are ignored.
type JobListOptions struct {
	OwnerID  *int64
	ClientID *int64
	Status   *JobStatus
	Scope    *ScopeKey
	Limit    int
	Offset   int
}

// ErrUnknownSelector is returned by ToOptions for unsupported selector types.
var ErrUnknownSelector = errors.New("unknown job list selector")

// ToOptions translates the selector into repository filters.
func (s JobListSelector) ToOptions() (JobListOptions, error) {
	opts := JobListOptions{Limit: s.Limit, Offset: s.Offset}
	ident := strings.TrimSpace(s.Identifier)

	switch JobSelectorType(strings.ToUpper(strings.TrimSpace(string(s.Type)))) {
	case JobSelectorMe, JobSelectorTechnician:
		id, err := parseID(ident)
		if err != nil {
			return opts, err
		}
		opts.OwnerID = &id
	case JobSelectorClient:
		id, err := parseID(ident)
		if err != nil {
			return opts, err
		}
		opts.ClientID = &id
	case JobSelectorStatus:
		st, err := ParseJobStatus(ident)
		if err != nil {
			return opts, err
		}
		opts.Status = &st
	case JobSelectorScope:
		if ident == "" {
			return opts, errors.New("scope identifier is required")
		}
		key := ScopeKey(ident)
		opts.Scope = &key
	case JobSelectorAll:
	default:
		return opts, fmt.Errorf("%w: %q", ErrUnknownSelector, s.Type)
	}
	return opts, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid identifier %q", s)
	}
	return id, nil
}

// JobList is the response of a list request.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// EmptyJobList returns a list that encodes as {"jobs":[]}.
func EmptyJobList() JobList {
	return JobList{Jobs: []Job{}}
}
