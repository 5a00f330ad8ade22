package reference

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
)

type commissionRateRequest struct {
	UserID    string `json:"user_id"`
	CarrierID string `json:"carrier_id"`
	BranchID  string `json:"branch_id"`
	AgentCode string `json:"agent_code"`
}

// GetCommissionRate resolves the commission percentage for a carrier, branch
// and optional producing agent. The most specific defined rate wins:
// carrier+branch+agent, then carrier+branch, then the carrier default row
// (branch and agent both null).
func GetCommissionRate(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commissionRateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if req.CarrierID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCarrierIDRequired)
			return
		}

		var rate decimal.Decimal
		var matchedBranch, matchedAgent sql.NullString
		err := db.QueryRowContext(r.Context(), `
			SELECT rate_percent, branch_id, agent_code
			  FROM acentecorpsaas.commission_rates
			 WHERE carrier_id = $1
			   AND (branch_id = $2 OR branch_id IS NULL)
			   AND (agent_code = $3 OR agent_code IS NULL)
			 ORDER BY (branch_id IS NOT NULL AND agent_code IS NOT NULL) DESC,
			          (branch_id IS NOT NULL) DESC
			 LIMIT 1`,
			req.CarrierID, nullable(req.BranchID), nullable(req.AgentCode),
		).Scan(&rate, &matchedBranch, &matchedAgent)
		if err == sql.ErrNoRows {
			api.RespondWithPayload(w, false, constants.ErrNoCommissionRate, nil)
			return
		}
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, pqUserFriendlyMessage(err))
			return
		}

		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"carrier_id":     req.CarrierID,
			"rate_percent":   rate,
			"matched_branch": matchedBranch.String,
			"matched_agent":  matchedAgent.String,
		})
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
