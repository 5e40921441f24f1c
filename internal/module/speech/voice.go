package speech

import (
	"strings"

	apperrors "github.com/facecast/server/internal/shared/errors"
)

// VoiceTable maps the declared gender domain to speaker voices, with a fixed
// default for requests that declare nothing.
type VoiceTable struct {
	Default string
	Male    string
	Female  string
}

// Selector carries the voice hints of one request. AvatarSpeaker is the
// default speaker of the resolved avatar, if any.
type Selector struct {
	Gender        string
	AvatarSpeaker string
}

// Resolve picks the speaker voice for a request. Precedence: an explicit
// gender always wins when provided; otherwise the avatar's default speaker;
// otherwise the fixed default. Gender is matched case-insensitively and is
// total over {male, female}; any other non-empty value is rejected before any
// synthesis call is attempted.
func (t VoiceTable) Resolve(sel Selector) (string, error) {
	switch strings.ToLower(strings.TrimSpace(sel.Gender)) {
	case "":
		// fall through to avatar / default
	case "male":
		return t.Male, nil
	case "female":
		return t.Female, nil
	default:
		return "", apperrors.ValidationError("unsupported gender " + sel.Gender + ", expected male or female")
	}

	if sel.AvatarSpeaker != "" {
		return sel.AvatarSpeaker, nil
	}

	return t.Default, nil
}
