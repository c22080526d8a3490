package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// OutboxEvent is an append-only row in outbox_events. Payload holds an
// outbox.PayloadEnvelope.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventType     enums.OutboxEventType     `gorm:"not null"`
	AggregateType enums.OutboxAggregateType `gorm:"not null"`
	AggregateID   uuid.UUID                 `gorm:"type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"type:jsonb;not null"`
	AttemptCount  int                       `gorm:"not null;default:0"`
	LastError     *string
	PublishedAt   *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// OutboxDLQ is an outbox row the publisher gave up on.
type OutboxDLQ struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID       uuid.UUID                  `gorm:"type:uuid;not null"`
	EventType     enums.OutboxEventType      `gorm:"not null"`
	AggregateType enums.OutboxAggregateType  `gorm:"not null"`
	AggregateID   uuid.UUID                  `gorm:"type:uuid;not null"`
	Payload       json.RawMessage            `gorm:"column:payload_json;type:jsonb;not null"`
	ErrorReason   enums.OutboxDLQErrorReason `gorm:"not null"`
	ErrorMessage  *string
	AttemptCount  int       `gorm:"not null;default:0"`
	FailedAt      time.Time `gorm:"autoCreateTime"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (OutboxDLQ) TableName() string { return "outbox_dlq" }
