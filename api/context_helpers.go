package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey     contextKey = "user_id"
	AgencyNameKey contextKey = "agency_name"
)

func GetUserIDFromCtx(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

func GetAgencyNameFromCtx(ctx context.Context) string {
	if name, ok := ctx.Value(AgencyNameKey).(string); ok {
		return name
	}
	return ""
}

// UserIDFromRequest returns the caller's user id: the context value placed
// there by the middleware, else the form/query field for unwrapped handlers.
func UserIDFromRequest(r *http.Request) string {
	if id := GetUserIDFromCtx(r.Context()); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.FormValue("user_id")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}
