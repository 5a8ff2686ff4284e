package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

var (
	ErrMalformedKey   = errors.New("malformed thread key")
	ErrThreadNotFound = errors.New("thread not found")
)

const keySeparator = "-"

var (
	componentEscaper   = strings.NewReplacer("%", "%25", "-", "%2D")
	componentUnescaper = strings.NewReplacer("%2D", "-", "%2d", "-", "%25", "%")
)

// ThreadKey identifies a thread by the source it came from, the channel and
// the user that opened it, and an optional sub-thread.
type ThreadKey struct {
	Source    string `json:"source"`
	Channel   string `json:"channel"`
	User      string `json:"user"`
	Subthread string `json:"subthread,omitempty"`
}

// String serializes the key as dash separated components. Dashes and percent
// signs inside a component are percent-escaped, so a key built from plain
// identifiers keeps the "<source>-<channel>-<user>[-<subthread>]" shape.
func (k ThreadKey) String() string {
	parts := []string{
		componentEscaper.Replace(k.Source),
		componentEscaper.Replace(k.Channel),
		componentEscaper.Replace(k.User),
	}
	if k.Subthread != "" {
		parts = append(parts, componentEscaper.Replace(k.Subthread))
	}
	return strings.Join(parts, keySeparator)
}

// ParseThreadKey parses a serialized thread key. Components beyond the fourth
// are folded back into the sub-thread. A fourth component, when present, must
// not be empty.
func ParseThreadKey(raw string) (ThreadKey, error) {
	parts := strings.Split(raw, keySeparator)
	if len(parts) < 3 {
		return ThreadKey{}, malformedKey(raw)
	}

	key := ThreadKey{
		Source:  componentUnescaper.Replace(parts[0]),
		Channel: componentUnescaper.Replace(parts[1]),
		User:    componentUnescaper.Replace(parts[2]),
	}
	if len(parts) > 3 {
		key.Subthread = componentUnescaper.Replace(strings.Join(parts[3:], keySeparator))
	}

	if key.Source == "" || key.Channel == "" || key.User == "" {
		return ThreadKey{}, malformedKey(raw)
	}
	// A trailing separator announces a sub-thread, so it cannot be empty.
	if len(parts) > 3 && key.Subthread == "" {
		return ThreadKey{}, malformedKey(raw)
	}
	return key, nil
}

func malformedKey(raw string) error {
	return platformerrors.NewError(
		context.Background(),
		platformerrors.LayerDomain,
		platformerrors.ErrorTypeValidation,
		fmt.Sprintf("thread key %q needs non-empty source, channel and user components", raw),
		ErrMalformedKey,
	)
}
