package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/requestctx"
)

const dateLayout = "2006-01-02"

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sess, err := h.sessions.Insert(r.Context(), requestctx.UserIDFromContext(r.Context()), domain.NewSession{
		TaskID:      req.TaskID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Duration:    req.Duration,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(sess))
}

func (h *handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sess, err := h.sessions.Update(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"), domain.SessionPatch{
		Description: req.Description,
		Duration:    req.Duration,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

func (h *handler) updateMultiple(w http.ResponseWriter, r *http.Request) {
	var req updateMultipleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items := make([]domain.SessionUpsert, 0, len(req.Sessions))
	for _, s := range req.Sessions {
		items = append(items, domain.SessionUpsert{
			ID:          s.ID,
			TaskID:      s.TaskID,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Duration:    s.Duration,
			Description: s.Description,
		})
	}

	written, err := h.sessions.UpdateMultiple(r.Context(), requestctx.UserIDFromContext(r.Context()), items)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updateMultipleResponse{Count: len(written), Sessions: toSessionDTOs(written)})
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := h.sessions.Delete(r.Context(), requestctx.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := deleteResponse{Success: deleted, Message: "session deleted"}
	if !deleted {
		resp.Message = fmt.Sprintf("session %s not found", id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) sessionsByDate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeError(w, r, h.logger, apperrors.Field(apperrors.CodeInvalidDateFormat, "date",
			fmt.Sprintf("date %q must be YYYY-MM-DD", raw)))
		return
	}

	sessions, err := h.sessions.ListForDate(r.Context(), requestctx.UserIDFromContext(r.Context()), date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByUser(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}
