package reference

import (
	"database/sql"
	"net/http"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
)

// GetAllBranches lists the canonical insurance branches (Trafik, Kasko,
// Konut, ...) every carrier's native product codes map onto.
func GetAllBranches(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT branch_id, branch_name, COALESCE(tramer_code, '')
			  FROM acentecorpsaas.branches
			 ORDER BY branch_name`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, pqUserFriendlyMessage(err))
			return
		}
		defer rows.Close()

		var branches []map[string]interface{}
		for rows.Next() {
			var id, name, tramerCode string
			if err := rows.Scan(&id, &name, &tramerCode); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
				return
			}
			branches = append(branches, map[string]interface{}{
				"branch_id":   id,
				"branch_name": name,
				"tramer_code": tramerCode,
			})
		}
		if len(branches) == 0 {
			api.RespondWithPayload(w, false, constants.ErrNoBranches, []map[string]interface{}{})
			return
		}
		api.RespondWithPayload(w, true, "", branches)
	}
}
