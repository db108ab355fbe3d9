package types

// GenerationPhase names the pipeline stage that last touched a desk's status.
// Only the content phase is driven end to end; ideation and outline are
// reserved for the phases the pipeline will grow into.
type GenerationPhase string

const (
	PhaseIdeation   GenerationPhase = "ideation"
	PhaseOutline    GenerationPhase = "outline"
	PhaseContent    GenerationPhase = "content"
	PhaseNotRunning GenerationPhase = "not_running"
)

type StatusText string

const (
	StatusProcessing StatusText = "processing"
	StatusSuccess    StatusText = "success"
	StatusError      StatusText = "error"
)

// MaxStatusMessageLen bounds the free-text message so an error chain never
// bloats the desk row or the SSE payload.
const MaxStatusMessageLen = 500

// GenerationStatus is immutable once constructed. It is stored on the desk
// row and streamed over SSE with the same field set, so a subscriber that
// reads the snapshot and one that sees a live push observe identical shapes.
type GenerationStatus struct {
	Phase      GenerationPhase `gorm:"column:phase;not null" json:"phase"`
	StatusText StatusText      `gorm:"column:status_text;not null" json:"status_text"`
	Message    string          `gorm:"column:message" json:"message"`
}

func NewGenerationStatus(phase GenerationPhase, text StatusText, message string) GenerationStatus {
	if len(message) > MaxStatusMessageLen {
		message = message[:MaxStatusMessageLen]
	}
	return GenerationStatus{Phase: phase, StatusText: text, Message: message}
}
