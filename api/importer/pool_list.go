package importer

import (
	"database/sql"
	"net/http"
	"time"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/api/utils"
)

// PoolList serves the paginated policy-pool screen for the caller's agency,
// newest imports first.
func PoolList(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := api.UserIDFromRequest(r)
		if userID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUserIDRequired)
			return
		}
		params, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		total, err := utils.CountTotal(r.Context(), db,
			`SELECT COUNT(*) FROM acentecorpsaas.policy_pool WHERE owner_id = $1`, userID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
			return
		}
		params.SetPaginationStats(total)

		rows, err := db.QueryContext(r.Context(), `
			SELECT pool_id, carrier_id, COALESCE(customer_id, ''), policy_no, endorsement_no,
			       branch_id, row_kind, issue_date, gross_premium, net_premium,
			       COALESCE(insured_name, ''), COALESCE(plate, ''), created_at
			  FROM acentecorpsaas.policy_pool
			 WHERE owner_id = $1
			 ORDER BY created_at DESC, pool_id DESC
			 LIMIT $2 OFFSET $3`,
			userID, params.Limit, params.Offset)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
			return
		}
		defer rows.Close()

		var records []map[string]interface{}
		for rows.Next() {
			var poolID, carrierID, customerID, policyNo, branchID, rowKind, insuredName, plate string
			var endorsementNo int
			var issueDate sql.NullTime
			var grossPremium, netPremium string
			var createdAt time.Time
			if err := rows.Scan(&poolID, &carrierID, &customerID, &policyNo, &endorsementNo,
				&branchID, &rowKind, &issueDate, &grossPremium, &netPremium,
				&insuredName, &plate, &createdAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
				return
			}
			rec := map[string]interface{}{
				"pool_id":        poolID,
				"carrier_id":     carrierID,
				"customer_id":    customerID,
				"policy_no":      policyNo,
				"endorsement_no": endorsementNo,
				"branch_id":      branchID,
				"row_kind":       rowKind,
				"gross_premium":  grossPremium,
				"net_premium":    netPremium,
				"insured_name":   insuredName,
				"plate":          plate,
				"created_at":     createdAt,
			}
			if issueDate.Valid {
				rec["issue_date"] = issueDate.Time.Format(constants.DateFormat)
			}
			records = append(records, rec)
		}

		api.RespondWithPayload(w, true, "", map[string]interface{}{
			"pagination": params,
			"records":    records,
		})
	}
}
