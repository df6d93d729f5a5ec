// Package model defines the core data types and structures used throughout the jobdesk service.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// maxTextLen is the maximum allowed length for short descriptive fields in characters.
	maxTextLen = 255
	// maxDescriptionLen is the maximum allowed length for the free-form description.
	maxDescriptionLen = 4000
)

// JobStatus represents the lifecycle status of a service job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusPending indicates a job is queued and waiting for its technician.
	JobStatusPending JobStatus = "pending"
	// JobStatusInProgress indicates the technician is working on the job.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusOnHold indicates work is paused (parts, customer, etc.).
	JobStatusOnHold JobStatus = "on_hold"
	// JobStatusReopened indicates a previously closed job was put back into the queue.
	JobStatusReopened JobStatus = "reopened"
	// JobStatusCompleted indicates the job has been finished.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates the job was abandoned.
	JobStatusCancelled JobStatus = "cancelled"
)

// ParseJobStatus normalizes a status string. Case, surrounding whitespace and
// space/hyphen separators are ignored, so "In Progress", "in-progress" and
// "IN_PROGRESS" all parse to JobStatusInProgress.
func ParseJobStatus(s string) (JobStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)
	if v == "canceled" {
		v = string(JobStatusCancelled)
	}
	st := JobStatus(v)
	if !st.Valid() {
		return "", fmt.Errorf("invalid JobStatus: %q", s)
	}
	return st, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so JSON bodies and env values accept
// the relaxed spellings understood by ParseJobStatus.
func (s *JobStatus) UnmarshalText(text []byte) error {
	st, err := ParseJobStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Valid returns true if the JobStatus is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusInProgress, JobStatusOnHold, JobStatusReopened,
		JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether jobs in this status take part in their scope's active ordering.
func (s JobStatus) IsOpen() bool {
	switch s {
	case JobStatusPending, JobStatusInProgress, JobStatusOnHold, JobStatusReopened:
		return true
	}
	return false
}

// IsClosed reports whether the status removes the job from active ordering.
func (s JobStatus) IsClosed() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// OpenJobStatuses returns every status that counts as open.
func OpenJobStatuses() []JobStatus {
	return []JobStatus{JobStatusPending, JobStatusInProgress, JobStatusOnHold, JobStatusReopened}
}

// Job is a service ticket together with its place in the ordering of its scope.
// Priority is only meaningful relative to other open jobs sharing ScopeKey; for
// closed jobs it is the frozen rank held when the job was closed.
type Job struct {
	ID                 int64      `json:"id"                            db:"id"`
	ScopeKey           ScopeKey   `json:"scope_key"                     db:"scope_key"`
	Status             JobStatus  `json:"status"                        db:"status"`
	Priority           int        `json:"priority_work"                 db:"priority"`
	OwnerID            int64      `json:"user_id"                       db:"owner_id"`
	ClientID           int64      `json:"user_id_client"                db:"client_id"`
	CreatedBy          *int64     `json:"user_id_created,omitempty"     db:"created_by"`
	EquipmentType      string     `json:"equipment_type,omitempty"      db:"equipment_type"`
	EquipmentProcedure string     `json:"equipment_procedure,omitempty" db:"equipment_procedure"`
	Brand              string     `json:"brand,omitempty"               db:"brand"`
	Model              string     `json:"model,omitempty"               db:"model"`
	SerialNumber       string     `json:"serial_number,omitempty"       db:"serial_number"`
	Description        string     `json:"description,omitempty"         db:"description"`
	CreatedAt          time.Time  `json:"created_at"                    db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"                    db:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"           db:"closed_at"`
}

// IsOpen reports whether the job currently participates in its scope's ordering.
func (j *Job) IsOpen() bool {
	return j != nil && j.Status.IsOpen()
}

// CreateJobRequest represents a request to create a new job.
// JSON names follow the legacy job form.
type CreateJobRequest struct {
	OwnerID            int64     `json:"userId"`
	ClientID           int64     `json:"userIdClient"`
	CreatedBy          *int64    `json:"userIdCreated,omitempty"`
	Status             JobStatus `json:"status,omitempty"`
	EquipmentType      string    `json:"equipmentType,omitempty"`
	EquipmentProcedure string    `json:"equipmentProcedure,omitempty"`
	Brand              string    `json:"brand,omitempty"`
	Model              string    `json:"model,omitempty"`
	SerialNumber       string    `json:"serialNumber,omitempty"`
	Description        string    `json:"description,omitempty"`
}

// Normalize fills defaults and trims descriptive fields.
func (r *CreateJobRequest) Normalize() {
	if r.Status == "" {
		r.Status = JobStatusPending
	}
	r.EquipmentType = strings.TrimSpace(r.EquipmentType)
	r.EquipmentProcedure = strings.TrimSpace(r.EquipmentProcedure)
	r.Brand = strings.TrimSpace(r.Brand)
	r.Model = strings.TrimSpace(r.Model)
	r.SerialNumber = strings.TrimSpace(r.SerialNumber)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if r.OwnerID <= 0 {
		return errors.New("technician id (userId) is required")
	}
	if r.ClientID <= 0 {
		return errors.New("client id (userIdClient) is required")
	}
	if r.CreatedBy != nil && *r.CreatedBy <= 0 {
		return errors.New("creator id (userIdCreated) must be positive")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if !r.Status.IsOpen() {
		return fmt.Errorf("a new job must start in an open status, got %q", r.Status)
	}
	return validateDescriptive(r.EquipmentType, r.EquipmentProcedure, r.Brand, r.Model, r.SerialNumber, r.Description)
}

// EditJobRequest carries the fields an edit may change. Nil fields are left untouched.
// Priority is deliberately absent: ordering changes go through the reorder endpoint.
type EditJobRequest struct {
	ID                 int64      `json:"id"`
	OwnerID            *int64     `json:"userId,omitempty"`
	ClientID           *int64     `json:"userIdClient,omitempty"`
	Status             *JobStatus `json:"status,omitempty"`
	EquipmentType      *string    `json:"equipmentType,omitempty"`
	EquipmentProcedure *string    `json:"equipmentProcedure,omitempty"`
	Brand              *string    `json:"brand,omitempty"`
	Model              *string    `json:"model,omitempty"`
	SerialNumber       *string    `json:"serialNumber,omitempty"`
	Description        *string    `json:"description,omitempty"`
}

// Validate validates the EditJobRequest fields.
func (r *EditJobRequest) Validate() error {
	if r.ID <= 0 {
		return errors.New("job id is required")
	}
	if r.OwnerID != nil && *r.OwnerID <= 0 {
		return errors.New("technician id (userId) must be positive")
	}
	if r.ClientID != nil && *r.ClientID <= 0 {
		return errors.New("client id (userIdClient) must be positive")
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", *r.Status)
	}
	return validateDescriptive(
		deref(r.EquipmentType), deref(r.EquipmentProcedure), deref(r.Brand),
		deref(r.Model), deref(r.SerialNumber), deref(r.Description),
	)
}

// Apply copies the requested changes onto job. Ordering fields (scope, priority) are
// left for the caller to recompute.
func (r *EditJobRequest) Apply(job *Job) {
	if r.OwnerID != nil {
		job.OwnerID = *r.OwnerID
	}
	if r.ClientID != nil {
		job.ClientID = *r.ClientID
	}
	if r.Status != nil {
		job.Status = *r.Status
	}
	applyString(&job.EquipmentType, r.EquipmentType)
	applyString(&job.EquipmentProcedure, r.EquipmentProcedure)
	applyString(&job.Brand, r.Brand)
	applyString(&job.Model, r.Model)
	applyString(&job.SerialNumber, r.SerialNumber)
	applyString(&job.Description, r.Description)
}

// RowRef is a client's view of one row in a drag-and-drop gesture.
type RowRef struct {
	ID       int64 `json:"id"`
	Priority int   `json:"priorityWork"`
}

// ReorderRequest is the body of a drag-and-drop reorder.
type ReorderRequest struct {
	Start RowRef `json:"startRowInfo"`
	End   RowRef `json:"endRowInfo"`
}

// Validate validates the ReorderRequest fields.
func (r *ReorderRequest) Validate() error {
	if r.Start.ID <= 0 || r.End.ID <= 0 {
		return errors.New("both startRowInfo.id and endRowInfo.id are required")
	}
	return nil
}

// ReopenJobRequest is the body of a reopen call.
type ReopenJobRequest struct {
	JobID int64 `json:"JobId"`
}

func validateDescriptive(equipmentType, procedure, brand, model, serial, description string) error {
	fields := []struct {
		name  string
		value string
	}{
		{"equipmentType", equipmentType},
		{"equipmentProcedure", procedure},
		{"brand", brand},
		{"model", model},
		{"serialNumber", serial},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > maxTextLen {
			return fmt.Errorf("%s cannot exceed %d characters", f.name, maxTextLen)
		}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", maxDescriptionLen)
	}
	return nil
}

func applyString(dst, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
