package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chaincred/internal/credential/transfer"
	dErrors "chaincred/pkg/domain-errors"
)

type createOfferRequest struct {
	TokenID string `json:"token_id"`
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
}

func (h *Handler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	offer, err := h.transfers.CreateOffer(r.Context(), transfer.CreateOfferRequest{
		TokenID: req.TokenID,
		From:    req.From,
		To:      req.To,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

type acceptOfferRequest struct {
	Acceptor string `json:"acceptor"`
}

func (h *Handler) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req acceptOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	res, err := h.transfers.AcceptOffer(r.Context(), chi.URLParam(r, "offerID"), req.Acceptor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCancelOffer(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSONError(w, dErrors.CodeBadRequest, "owner query parameter is required")
		return
	}

	if err := h.transfers.CancelOffer(r.Context(), chi.URLParam(r, "offerID"), owner); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOfferInfo(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSONError(w, dErrors.CodeBadRequest, "owner query parameter is required")
		return
	}

	offer, err := h.transfers.OfferInfo(r.Context(), owner, chi.URLParam(r, "offerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}
