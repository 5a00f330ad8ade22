package api

import (
	"context"
	"database/sql"
	"net/http"

	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/internal/validation"
)

// CallerContextMiddleware resolves the caller before any import or reference
// handler runs: user_id is extracted from the request, checked against the
// users table, and placed on the context together with the agency name. The
// user id doubles as the owner scope that partitions customers and duplicate
// checks.
func CallerContextMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := validation.ExtractUserID(r)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, constants.ErrUserIDRequired)
				return
			}

			var agencyName string
			var active bool
			err = db.QueryRow(
				`SELECT agency_name, status = 'ACTIVE' FROM acentecorpsaas.users WHERE user_id = $1`,
				userID).Scan(&agencyName, &active)
			if err == sql.ErrNoRows || (err == nil && !active) {
				RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}
			if err != nil {
				LogError("caller lookup failed for user %s: %v", userID, err)
				RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, AgencyNameKey, agencyName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
