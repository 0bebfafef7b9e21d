package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// BlockedErr is returned when the prompt yields no candidates,
// usually because the prompt itself was blocked.
type BlockedErr struct {
	Feedback *genai.GenerateContentResponsePromptFeedback
}

func (b *BlockedErr) Error() string {

	if b.Feedback == nil || b.Feedback.BlockReason == "" {
		return "gemini produced no suggestions"
	}

	if b.Feedback.BlockReasonMessage != "" {
		return fmt.Sprintf(
			"gemini blocked the prompt: %s (%s)",
			b.Feedback.BlockReason, b.Feedback.BlockReasonMessage,
		)
	}

	return fmt.Sprintf("gemini blocked the prompt: %s", b.Feedback.BlockReason)
}

// isPermanent reports errors another attempt cannot fix:
// a blocked prompt, or a client error other than timeouts and rate limits.
func isPermanent(err error) bool {

	var blocked *BlockedErr
	if errors.As(err, &blocked) {
		return true
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}

	return apiErr.Code >= 400 && apiErr.Code < 500
}

// retryAfter reads the RetryInfo detail of a REST error,
// e.g. {"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "17s"}
func retryAfter(err error) (time.Duration, bool) {

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	for _, detail := range apiErr.Details {
		kind, _ := detail["@type"].(string)
		if !strings.HasSuffix(kind, "google.rpc.RetryInfo") {
			continue
		}

		raw, _ := detail["retryDelay"].(string)
		if delay, err := time.ParseDuration(raw); err == nil {
			return delay, true
		}
	}

	return 0, false
}
