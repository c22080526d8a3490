package models

import (
	"time"

	"github.com/google/uuid"
)

// AgreementDocument points at the rendered agreement stored in GCS.
type AgreementDocument struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`
	SnapshotID  uuid.UUID `gorm:"column:snapshot_id;type:uuid;not null;uniqueIndex"`
	Bucket      string    `gorm:"column:bucket;not null"`
	ObjectKey   string    `gorm:"column:object_key;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
