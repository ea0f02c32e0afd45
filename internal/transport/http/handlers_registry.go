package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chaincred/internal/credential/models"
	"chaincred/internal/credential/registry"
	dErrors "chaincred/pkg/domain-errors"
)

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	level := models.VerificationLevel(r.URL.Query().Get("level"))

	info, err := h.registry.GetInfo(r.Context(), chi.URLParam(r, "tokenID"), level)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	issuer := r.URL.Query().Get("issuer")
	if issuer == "" {
		writeJSONError(w, dErrors.CodeBadRequest, "issuer query parameter is required")
		return
	}

	events, err := h.registry.StatusHistory(r.Context(), issuer, chi.URLParam(r, "tokenID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleListByIssuer(w http.ResponseWriter, r *http.Request) {
	opts := registry.ListOptions{
		Holder: r.URL.Query().Get("holder"),
		Status: models.CredentialStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("taxon"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeJSONError(w, dErrors.CodeBadRequest, "taxon must be an unsigned integer")
			return
		}
		taxon := uint32(n)
		opts.Taxon = &taxon
	}

	list, err := h.registry.ListByIssuer(r.Context(), chi.URLParam(r, "account"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": list})
}
