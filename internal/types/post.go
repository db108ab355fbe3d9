package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PostStatus string

const (
	PostStatusPendingReview PostStatus = "pending"
	PostStatusApproved      PostStatus = "approved"
	PostStatusRejected      PostStatus = "rejected"
)

// Post is a generated piece of content frozen for editorial review. It
// snapshots the desk inputs it came from so later desk edits don't mutate
// what the reviewer sees.
type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID     uuid.UUID      `gorm:"type:uuid;column:topic_id;not null;index" json:"topic_id"`
	Topic       string         `gorm:"column:topic;not null" json:"topic"`
	Context     string         `gorm:"column:context;type:text" json:"context"`
	Platform    string         `gorm:"column:platform;not null" json:"platform"`
	ContentType string         `gorm:"column:content_type;not null" json:"content_type"`
	Content     string         `gorm:"column:content;type:text;not null" json:"content"`
	QnA         datatypes.JSON `gorm:"column:qna;type:jsonb" json:"qna"`
	Feedback    string         `gorm:"column:feedback;type:text" json:"feedback"`
	Status      PostStatus     `gorm:"column:status;not null;index" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Post) TableName() string { return "post" }
