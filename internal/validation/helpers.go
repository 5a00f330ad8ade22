package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ExtractUserID finds the caller id in a JSON body, a multipart upload or a
// plain form, in that order. The body is rewound after every attempt so the
// handler still gets to read it.
func ExtractUserID(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	r.Body.Close()
	rewind := func() { r.Body = io.NopCloser(bytes.NewReader(body)) }
	rewind()

	if id := userIDFromJSON(body); id != "" {
		return id, nil
	}
	if id := userIDFromForm(r); id != "" {
		rewind()
		return id, nil
	}
	rewind()
	return "", errors.New("user_id not found in request")
}

func userIDFromJSON(body []byte) string {
	var fields map[string]interface{}
	if json.Unmarshal(body, &fields) != nil {
		return ""
	}
	id, _ := fields["user_id"].(string)
	return id
}

func userIDFromForm(r *http.Request) string {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "multipart/form-data") {
		if r.ParseMultipartForm(32<<20) != nil {
			return ""
		}
	} else if r.ParseForm() != nil {
		return ""
	}
	return r.FormValue("user_id")
}
