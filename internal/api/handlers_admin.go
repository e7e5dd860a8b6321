package api

import (
	"net/http"
	"strconv"

	"github.com/germanmitharsh/formgate/internal/models"
	"github.com/germanmitharsh/formgate/internal/storage"
)

type AdminHandler struct {
	store storage.Storage
}

func NewAdminHandler(store storage.Storage) *AdminHandler {
	return &AdminHandler{store: store}
}

func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "formgate",
	})
}

// ListSubmissions handles GET /admin/submissions. Operators use it to triage
// failed deliveries; supports form_type, limit and offset query params.
func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	formType := models.FormType(r.URL.Query().Get("form_type"))
	switch formType {
	case "", models.FormContact, models.FormEnroll:
	default:
		writeError(w, http.StatusBadRequest, "unknown form_type")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	subs, err := h.store.ListSubmissions(r.Context(), formType, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"submissions": subs,
	})
}
