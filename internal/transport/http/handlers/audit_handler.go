package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgrelay/internal/transport/http/errors"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]model.Audit, error)
}

type AuditHandler struct {
	reader AuditReader
}

// NewAuditHandler serves the decision journal. A nil reader means the journal is disabled.
func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeUnavailable, "decision journal is disabled")
		return
	}

	limit, ok := parseAuditLimit(r.URL.Query().Get("n"))
	if !ok {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.CodeValidation, "n must be an integer between 1 and 200")
		return
	}

	entries, err := h.reader.ListRecent(r.Context(), limit)
	if err != nil {
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.CodeInternal, "failed to read decision journal")
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:           entry.ID,
			SubmissionID: entry.SubmissionID,
			ActorTGID:    entry.ActorTGID,
			Action:       string(entry.Action),
			Payload:      entry.Payload,
			CreatedAt:    entry.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.AuditListResponse{Limit: limit, Items: items})
}

func parseAuditLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultAuditLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxAuditLimit {
		return 0, false
	}
	return n, true
}
