package types

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a user-defined subject bound to the desk that generates content
// for it.
type Topic struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	DeskID    *uuid.UUID `gorm:"type:uuid;column:desk_id;index" json:"desk_id,omitempty"`
	Topic     string     `gorm:"column:topic;not null" json:"topic"`
	Context   string     `gorm:"column:context;type:text" json:"context"`
	CreatedAt time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
