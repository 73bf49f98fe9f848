package agents

import (
	"encoding/json"
	"strings"

	errx "github.com/datasleuth/server/internal/core/error"
)

// DecodeJSON parses a model response body into target, tolerating the
// markdown code fences Gemini likes to wrap JSON in. A payload that does not
// parse is a validation failure, never retried.
func DecodeJSON(content string, target any) error {
	body := stripFences(content)
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return errx.Validation(err, "model response is not valid JSON")
	}
	return nil
}

func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
