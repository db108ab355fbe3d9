package sources

import (
	"context"
	"errors"

	"github.com/draftdesk/draftdesk-backend/internal/clients/studio"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/google/uuid"
)

// Content types and platforms are part of the external contract: desks store
// these strings verbatim and clients send them back verbatim.
const (
	ContentTypeNewsRoundup                 = "News Roundup"
	ContentTypeManufacturingMetrics        = "Manufacturing Metrices"
	ContentTypeManufacturingBusinessModels = "Manufacturing Business Models"

	PlatformLinkedIn = "LinkedIn"
	PlatformTwitter  = "Twitter"
)

var (
	// ErrUnsupportedContentType is returned by Registry.Lookup when no
	// sourcer is registered for the requested content type.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrUnsupportedPlatform is returned when a sourcer has no formatter
	// for the requested platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrEmptySelection is returned when an intermediate agent step
	// produces no usable output, so the pipeline cannot continue.
	ErrEmptySelection = errors.New("agent step returned an empty result")
)

// Request carries the per-run inputs a sourcer needs. APIKey is the
// requesting user's studio key; Context is the desk's free-form brief.
type Request struct {
	APIKey      string
	UserID      string
	Context     string
	ContentType string
	Platform    string
}

// Sourcer produces the final formatted content for one content type.
type Sourcer interface {
	Get(ctx context.Context, req Request) (string, error)
}

// Registry maps content-type names to their sourcers. Dispatch fails
// closed: an unknown content type is rejected before any agent call.
type Registry struct {
	log      *logger.Logger
	sourcers map[string]Sourcer
}

func NewRegistry(baseLog *logger.Logger, client studio.Client) *Registry {
	log := baseLog.With("component", "source_registry")
	return &Registry{
		log: log,
		sourcers: map[string]Sourcer{
			ContentTypeNewsRoundup:                 NewNewsSourcer(baseLog, client),
			ContentTypeManufacturingMetrics:        NewManufacturingMetricsSourcer(baseLog, client),
			ContentTypeManufacturingBusinessModels: NewManufacturingBusinessModelsSourcer(baseLog, client),
		},
	}
}

// Lookup returns the sourcer for contentType, or ErrUnsupportedContentType.
func (r *Registry) Lookup(contentType string) (Sourcer, error) {
	s, ok := r.sourcers[contentType]
	if !ok {
		r.log.Warn("no sourcer registered for content type", "content_type", contentType)
		return nil, ErrUnsupportedContentType
	}
	return s, nil
}

// ContentTypes lists the registered content-type names in a stable order.
func (r *Registry) ContentTypes() []string {
	return []string{
		ContentTypeNewsRoundup,
		ContentTypeManufacturingMetrics,
		ContentTypeManufacturingBusinessModels,
	}
}

// Platforms lists the supported target platforms.
func Platforms() []string {
	return []string{PlatformLinkedIn, PlatformTwitter}
}

// newSessionID tags all agent calls of one pipeline run so their logs
// can be correlated on the studio side.
func newSessionID() string {
	return uuid.NewString()[:8]
}
