package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// ErrContentUnavailable is returned when a render fails and no earlier
// successful render of the same template exists. It wraps the render error.
var ErrContentUnavailable = errors.New("content unavailable")

// RenderRequest is a template to render.
type RenderRequest struct {
	Template string
	AsOf     time.Time // zero means now
}

// RenderResult is rendered text. Stale results come from the last good render
// because the template references a variable that cannot currently be resolved.
type RenderResult struct {
	Text         string    `json:"text"`
	Placeholders []string  `json:"placeholders"`
	Stale        bool      `json:"stale"`
	RenderedAt   time.Time `json:"rendered_at"`
	Unresolved   []string  `json:"unresolved,omitempty"`
}

// RenderHandler renders templates and falls back to the last good render.
type RenderHandler struct {
	service *services.RenderService
	cache   ports.RenderCache
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewRenderHandler creates a new RenderHandler. cache may be nil.
func NewRenderHandler(service *services.RenderService, cache ports.RenderCache, metrics ports.Metrics, logger *zap.Logger) *RenderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderHandler{
		service: service,
		cache:   cache,
		metrics: orNoop(metrics),
		logger:  logger,
	}
}

// Handle renders req.Template.
func (h *RenderHandler) Handle(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	placeholders := services.Placeholders(req.Template)
	key := RenderKey(req.Template, req.AsOf)

	text, err := h.service.Render(ctx, req.Template, req.AsOf)
	if err == nil {
		result := &RenderResult{Text: text, Placeholders: placeholders, RenderedAt: timeNow().UTC()}
		if h.cache != nil {
			if perr := h.cache.Put(ctx, key, ports.CachedRender{Text: text, RenderedAt: result.RenderedAt}); perr != nil {
				h.logger.Warn("caching render failed", zap.Error(perr))
			}
		}
		h.metrics.RenderCompleted(ports.RenderOK)
		return result, nil
	}

	var unresolved *entities.UnresolvedVariableError
	if !errors.As(err, &unresolved) {
		h.metrics.RenderCompleted(ports.RenderErrored)
		return nil, err
	}

	if h.cache != nil {
		cached, cerr := h.cache.Get(ctx, key)
		if cerr != nil {
			h.logger.Warn("reading cached render failed", zap.Error(cerr))
		}
		if cached != nil {
			h.logger.Warn("serving stale render",
				zap.Strings("unresolved", unresolved.Keys),
				zap.Time("rendered_at", cached.RenderedAt),
			)
			h.metrics.RenderCompleted(ports.RenderStale)
			return &RenderResult{
				Text:         cached.Text,
				Placeholders: placeholders,
				Stale:        true,
				RenderedAt:   cached.RenderedAt,
				Unresolved:   unresolved.Keys,
			}, nil
		}
	}

	h.metrics.RenderCompleted(ports.RenderUnresolved)
	return nil, fmt.Errorf("%w: %w", ErrContentUnavailable, err)
}

// RenderKey identifies a template and the instant it is rendered for.
func RenderKey(template string, asOf time.Time) string {
	sum := sha256.New()
	sum.Write([]byte(template))
	if !asOf.IsZero() {
		sum.Write([]byte{0})
		sum.Write([]byte(asOf.UTC().Format(time.RFC3339)))
	}
	return hex.EncodeToString(sum.Sum(nil))
}
