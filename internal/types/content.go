package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Content holds the latest generated result text plus the accumulated user
// feedback that gets folded into the next run's prompt context. Created empty
// alongside its desk; never deleted by the orchestrator.
type Content struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Feedback  string         `gorm:"column:feedback;type:text" json:"feedback"`
	Result    string         `gorm:"column:result;type:text" json:"result"`
	QnA       datatypes.JSON `gorm:"column:qna;type:jsonb" json:"qna"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Content) TableName() string { return "content" }
