package api

import (
	"context"
	"net/http"

	"github.com/okian/typeboard/internal/domain/types"
)

// TextDependencies serves typing texts.
type TextDependencies interface {
	RandomText(ctx context.Context) (types.Text, error)
}

// TextHandler handles typing text requests.
type TextHandler struct {
	deps TextDependencies
}

// NewTextHandler creates a new text handler.
func NewTextHandler(deps TextDependencies) *TextHandler {
	return &TextHandler{deps: deps}
}

// HandleRandomText handles GET /api/typing/text.
func (h *TextHandler) HandleRandomText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	text, err := h.deps.RandomText(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}
