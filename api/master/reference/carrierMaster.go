package reference

import (
	"database/sql"
	"net/http"

	"github.com/lib/pq"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
)

// pqUserFriendlyMessage maps lib/pq error codes onto messages safe to show
// in the reference-data screens.
func pqUserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err.Error()
	}
	switch pqErr.Code {
	case "23505":
		return "A record with the same unique value already exists."
	case "23503":
		return "Some referenced data was not found (please refresh and try again)."
	default:
		return "Database error while processing the request. Please try again."
	}
}

// GetAllCarriers lists the active insurance carriers, flagging the ones an
// import parser is registered for.
func GetAllCarriers(db *sql.DB, hasParser func(id string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT carrier_id, carrier_name, COALESCE(tramer_code, ''), status
			  FROM acentecorpsaas.carriers
			 ORDER BY carrier_name`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, pqUserFriendlyMessage(err))
			return
		}
		defer rows.Close()

		var carriers []map[string]interface{}
		for rows.Next() {
			var id, name, tramerCode, status string
			if err := rows.Scan(&id, &name, &tramerCode, &status); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
				return
			}
			carriers = append(carriers, map[string]interface{}{
				"carrier_id":   id,
				"carrier_name": name,
				"tramer_code":  tramerCode,
				"status":       status,
				"has_parser":   hasParser(id),
			})
		}
		if len(carriers) == 0 {
			api.RespondWithPayload(w, false, constants.ErrNoCarriers, []map[string]interface{}{})
			return
		}
		api.RespondWithPayload(w, true, "", carriers)
	}
}
