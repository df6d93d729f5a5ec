package testutil

import (
	"github.com/target/jobdesk-api/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			OwnerID:       1,
			ClientID:      10,
			Status:        model.JobStatusPending,
			EquipmentType: "boiler",
			Brand:         "Acme",
			Description:   "annual service",
		},
	}
}

// WithOwner sets the responsible technician.
func (b *JobRequestBuilder) WithOwner(ownerID int64) *JobRequestBuilder {
	b.req.OwnerID = ownerID
	return b
}

// WithStatus sets the initial status.
func (b *JobRequestBuilder) WithStatus(status model.JobStatus) *JobRequestBuilder {
	b.req.Status = status
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// NewOpenJob returns an unsaved open job for scope with the given rank.
func NewOpenJob(scope model.ScopeKey, ownerID int64, priority int) *model.Job {
	return &model.Job{
		ScopeKey:    scope,
		Status:      model.JobStatusPending,
		Priority:    priority,
		OwnerID:     ownerID,
		ClientID:    10,
		Description: "test job",
	}
}
