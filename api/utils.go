package api

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	json.NewEncoder(w).Encode(body)
}

// RespondWithError sends the standard failure envelope.
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	writeEnvelope(w, status, map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithResult sends a bare success or failure envelope.
func RespondWithResult(w http.ResponseWriter, success bool, errMsg string) {
	body := map[string]interface{}{"success": success}
	if !success {
		log.Println("[ERROR] RespondWithResult", errMsg)
		body["error"] = errMsg
	}
	writeEnvelope(w, http.StatusOK, body)
}

// RespondWithPayload sends the envelope with a payload under the
// conventional "rows" key.
func RespondWithPayload(w http.ResponseWriter, success bool, errMsg string, payload interface{}) {
	body := map[string]interface{}{"success": success}
	if !success && errMsg != "" {
		log.Println("[ERROR] RespondWithPayload", errMsg)
		body["error"] = errMsg
	}
	if payload != nil {
		body["rows"] = payload
	}
	writeEnvelope(w, http.StatusOK, body)
}

func LogInfo(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+msg, args...)
	} else {
		log.Println("[INFO]", msg)
	}
}

func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+msg, args...)
	} else {
		log.Println("[ERROR]", msg)
	}
}
