package api

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// GetHoldings returns the native balance and every token account of a wallet with prices when known.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	owner, err := solana.PublicKeyFromBase58(chi.URLParam(r, "owner"))
	if err != nil {
		badRequest(w, "invalid owner: "+err.Error())
		return
	}
	overview, err := h.snapshotter.Overview(r.Context(), owner)
	if err != nil {
		errorsHandler(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertHoldings(overview))
}
