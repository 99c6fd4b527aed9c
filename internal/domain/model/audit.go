package model

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionSubmissionQueued   AuditAction = "SUBMISSION_QUEUED"
	AuditActionSubmissionApproved AuditAction = "SUBMISSION_APPROVED"
	AuditActionSubmissionRejected AuditAction = "SUBMISSION_REJECTED"
	AuditActionPublishFailed      AuditAction = "PUBLISH_FAILED"
)

type Audit struct {
	ID           string
	SubmissionID string
	ActorTGID    int64
	Action       AuditAction
	Payload      json.RawMessage
	CreatedAt    time.Time
}
