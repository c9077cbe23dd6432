// internal/domain/salesforce/entity.go
package salesforce

import (
	"time"
)

type EntityType string

const (
	EntityContact EntityType = "contact"
	EntityOrder   EntityType = "order"
)

// SyncStatus is the typed outcome of a synchronisation attempt.
type SyncStatus string

const (
	StatusSuccess             SyncStatus = "success"
	StatusRejected            SyncStatus = "rejected"
	StatusNotFound            SyncStatus = "not_found"
	StatusSkipped             SyncStatus = "skipped"
	StatusUpstreamUnavailable SyncStatus = "upstream_unavailable"
	StatusMalformedInput      SyncStatus = "malformed_input"
	StatusBusy                SyncStatus = "busy"
)

// SyncResult is returned by every sync operation, whatever the outcome.
type SyncResult struct {
	SyncID     string     `json:"sync_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	Status     SyncStatus `json:"status"`

	SFDCNumber         string `json:"sfdc_number,omitempty"`
	SFDCRecordID       string `json:"sfdc_record_id,omitempty"`
	ResultMsg          string `json:"result_msg,omitempty"`
	CalloutErrorResult bool   `json:"callout_error_result"`

	Message    string    `json:"message,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewSyncResult(entityType EntityType, entityID int64) *SyncResult {
	return &SyncResult{EntityType: entityType, EntityID: entityID}
}

// Fail sets a non-success status with a human readable message.
func (r *SyncResult) Fail(status SyncStatus, message string) *SyncResult {
	r.Status = status
	r.Message = message
	return r
}

// Apply copies the fields of a callout result onto the sync result.
func (r *SyncResult) Apply(c CalloutResult) {
	r.SFDCNumber = c.Number()
	if c.SFDCRecordID != nil {
		r.SFDCRecordID = *c.SFDCRecordID
	}
	if c.ResultMsg != nil {
		r.ResultMsg = *c.ResultMsg
	}
	r.CalloutErrorResult = bool(c.CalloutErrorResult)
}

// ExternalID is the CRM identifier stored for a local entity.
type ExternalID struct {
	EntityType EntityType `json:"entity_type" db:"entity_type"`
	EntityID   int64      `json:"entity_id" db:"entity_id"`
	ExternalID string     `json:"external_id" db:"external_id"`
	RecordID   string     `json:"record_id,omitempty" db:"record_id"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// SyncLogEntry is the persisted audit record of a SyncResult.
type SyncLogEntry struct {
	ID           string     `json:"id" db:"id"`
	EntityType   EntityType `json:"entity_type" db:"entity_type"`
	EntityID     int64      `json:"entity_id" db:"entity_id"`
	Status       SyncStatus `json:"status" db:"status"`
	ExternalID   string     `json:"external_id,omitempty" db:"external_id"`
	RecordID     string     `json:"record_id,omitempty" db:"record_id"`
	Message      string     `json:"message,omitempty" db:"message"`
	CalloutError bool       `json:"callout_error" db:"callout_error"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func NewSyncLogEntry(r *SyncResult) *SyncLogEntry {
	message := r.Message
	if message == "" {
		message = r.ResultMsg
	}
	return &SyncLogEntry{
		ID:           r.SyncID,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		Status:       r.Status,
		ExternalID:   r.SFDCNumber,
		RecordID:     r.SFDCRecordID,
		Message:      message,
		CalloutError: r.CalloutErrorResult,
		CreatedAt:    r.FinishedAt,
	}
}

type SyncLogFilters struct {
	EntityType EntityType  `form:"entity_type" binding:"omitempty,oneof=contact order"`
	EntityID   *int64      `form:"entity_id"`
	Status     *SyncStatus `form:"status"`
	Page       int         `form:"page"`
	PageSize   int         `form:"page_size" binding:"omitempty,max=100"`
}

type SyncLogListResponse struct {
	Entries    []SyncLogEntry `json:"entries"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}
