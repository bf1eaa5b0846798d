package api

import (
	"encoding/json"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/api/i18n"
	"github.com/arnac-io/tokensweep/pkg/sweep"
	"github.com/arnac-io/tokensweep/pkg/wallet"
)

// BuildSweep builds an unsigned transaction from a fresh snapshot of the owner's wallet.
func (h *Handler) BuildSweep(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		badRequest(w, "invalid owner: "+err.Error())
		return
	}
	for _, recipient := range []string{req.ValueRecipient, req.AssetRecipient} {
		if _, err := solana.PublicKeyFromBase58(recipient); err != nil {
			badRequest(w, "invalid recipient: "+err.Error())
			return
		}
	}
	snapshot, err := h.snapshotter.Refresh(r.Context(), owner)
	if err != nil {
		errorsHandler(w, err)
		return
	}
	plan, err := convertPlan(req, snapshot.Holdings)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	batch, err := h.builder.Build(r.Context(), sweep.BuildRequest{
		Snapshot:       snapshot,
		Plan:           plan,
		ValueRecipient: req.ValueRecipient,
		AssetRecipient: req.AssetRecipient,
	})
	if err != nil {
		errorsHandler(w, err)
		return
	}
	prepared, err := h.driver.Prepare(r.Context(), batch)
	if err != nil {
		errorsHandler(w, err)
		return
	}
	encoded, err := prepared.Transaction.ToBase64()
	if err != nil {
		errorsHandler(w, err)
		return
	}
	lang := i18n.Lang(r.Header.Get("Accept-Language")).String()
	w.Header().Set("Content-Language", lang)
	warnings := batch.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, BuildResponse{
		Transaction:          encoded,
		Blockhash:            prepared.Blockhash.String(),
		LastValidBlockHeight: prepared.LastValidBlockHeight,
		Operations:           convertOperations(batch, snapshot.Holdings, lang),
		Warnings:             warnings,
		Risk:                 convertRisk(wallet.ExtractRisk(batch)),
	})
}

// SendSweep broadcasts a transaction signed by the user and waits for its confirmation.
func (h *Handler) SendSweep(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	var tx solana.Transaction
	if err := tx.UnmarshalBase64(req.Transaction); err != nil {
		badRequest(w, "invalid transaction: "+err.Error())
		return
	}
	signature, err := h.driver.Broadcast(r.Context(), &tx)
	if err != nil {
		h.logger.Warn("sweep was not confirmed", zap.Stringer("signature", signature), zap.Error(err))
		errorsHandler(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{Signature: signature.String()})
}
