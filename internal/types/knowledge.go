package types

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeDocType string

const (
	KnowledgeDocPDF     KnowledgeDocType = "pdf"
	KnowledgeDocDocx    KnowledgeDocType = "docx"
	KnowledgeDocTxt     KnowledgeDocType = "txt"
	KnowledgeDocCSV     KnowledgeDocType = "csv"
	KnowledgeDocText    KnowledgeDocType = "text"
	KnowledgeDocWebsite KnowledgeDocType = "website"
)

// KnowledgeDoc tracks one ingested source: an uploaded file (DocLink is the
// bucket URL), a raw text snippet, or a crawled website.
type KnowledgeDoc struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string           `gorm:"column:name;not null" json:"name"`
	DocType   KnowledgeDocType `gorm:"column:doc_type;not null" json:"doc_type"`
	DocLink   string           `gorm:"column:doc_link" json:"doc_link,omitempty"`
	CreatedAt time.Time        `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (KnowledgeDoc) TableName() string { return "knowledge_doc" }
