package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	contract "chaincred/contracts/ledger"
	"chaincred/internal/credential/issuance"
	"chaincred/internal/credential/models"
	"chaincred/internal/credential/revocation"
	"chaincred/internal/credential/verification"
	dErrors "chaincred/pkg/domain-errors"
)

type issueRequest struct {
	Document   models.Document     `json:"document"`
	Flags      contract.TokenFlags `json:"flags"`
	Taxon      uint32              `json:"taxon"`
	Expiration *time.Time          `json:"expiration,omitempty"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	res, err := h.issuance.Issue(r.Context(), issuance.IssueRequest{
		Document:   req.Document,
		Flags:      req.Flags,
		Taxon:      req.Taxon,
		Expiration: req.Expiration,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type verifyRequest struct {
	Issuer string `json:"issuer,omitempty"`
	Holder string `json:"holder,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")
	level := models.VerificationLevel(r.URL.Query().Get("level"))

	var req verifyRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
			return
		}
	}

	res, err := h.verification.Verify(r.Context(), tokenID, level, verification.Params{
		Issuer: req.Issuer,
		Holder: req.Holder,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type revokeRequest struct {
	Issuer string `json:"issuer"`
	Hard   bool   `json:"hard,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	res, err := h.revocation.Revoke(r.Context(), revocation.RevokeRequest{
		TokenID: chi.URLParam(r, "tokenID"),
		Issuer:  req.Issuer,
		Hard:    req.Hard,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type suspendRequest struct {
	Issuer string `json:"issuer"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	res, err := h.revocation.Suspend(r.Context(), chi.URLParam(r, "tokenID"), req.Issuer, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleReinstate(w http.ResponseWriter, r *http.Request) {
	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, dErrors.CodeBadRequest, "malformed request body")
		return
	}

	res, err := h.revocation.Reinstate(r.Context(), chi.URLParam(r, "tokenID"), req.Issuer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
