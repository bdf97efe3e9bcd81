package generator

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

// ErrDraftDecode is returned when the generator's text cannot be decoded
// into a structured draft. The raw text is never passed through downstream.
var ErrDraftDecode = appErrors.New("DRAFT_DECODE_FAILED", http.StatusBadGateway, "generator returned an undecodable draft")

// StripCodeFence removes a leading/trailing markdown code fence, with or
// without a language marker, leaving the enclosed text.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		// A language marker like "json" sits alone on the fence line.
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// DecodeDraft parses the generator's output into a structured draft.
// Decode failure is a typed error so downstream code can never mistake
// free text for structured data.
func DecodeDraft(raw string) (dto.GeneratedDraft, error) {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return nil, appErrors.Clone(ErrDraftDecode, "generator returned an empty draft")
	}

	var draft dto.GeneratedDraft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		excerpt := cleaned
		if len(excerpt) > 120 {
			excerpt = excerpt[:120] + "..."
		}
		return nil, appErrors.Wrap(err, ErrDraftDecode.Code, ErrDraftDecode.Status, "undecodable draft: "+excerpt)
	}
	if len(draft) == 0 {
		return nil, appErrors.Clone(ErrDraftDecode, "generator draft contains no classes")
	}
	return draft, nil
}
