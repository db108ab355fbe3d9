package types

import (
	"time"

	"github.com/google/uuid"
)

// Desk is the aggregate root for one generation job: its inputs, the linked
// content record, and the single canonical GenerationStatus. The orchestrator
// only ever rewrites the status columns; every other field changes through
// the PATCH endpoints.
type Desk struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Topic       string           `gorm:"column:topic;not null" json:"topic"`
	Context     string           `gorm:"column:context;not null" json:"context"`
	Platform    string           `gorm:"column:platform;not null" json:"platform"`
	ContentType string           `gorm:"column:content_type;not null" json:"content_type"`
	ContentID   uuid.UUID        `gorm:"type:uuid;column:content_id;not null" json:"content_id"`
	Status      GenerationStatus `gorm:"embedded" json:"status"`
	CreatedAt   time.Time        `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Desk) TableName() string { return "desk" }
