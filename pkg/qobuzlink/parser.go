// Package qobuzlink classifies Qobuz URLs into a media type and catalog id.
package qobuzlink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
)

var qobuzDomains = map[string]bool{
	"open.qobuz.com": true,
	"play.qobuz.com": true,
	"www.qobuz.com":  true,
	"qobuz.com":      true,
}

// Link is a parsed Qobuz URL.
type Link struct {
	Type core.MediaType
	ID   string
}

// CanResolve checks whether the URL points at a Qobuz domain.
func CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return qobuzDomains[strings.ToLower(u.Hostname())]
}

// Parse extracts the media type and id from a Qobuz URL. Player links look
// like open.qobuz.com/track/52151405; store links carry a locale prefix and
// a title slug, e.g. www.qobuz.com/us-en/album/slug/0886445927087, with the
// id in the last path segment.
func Parse(rawURL string) (*Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !qobuzDomains[strings.ToLower(u.Hostname())] {
		return nil, errors.New("not a Qobuz URL")
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		// Store artist pages use "interpreter" instead of "artist".
		if strings.EqualFold(segment, "interpreter") {
			segment = "artist"
		}
		mediaType, err := core.ParseMediaType(segment)
		if err != nil {
			continue
		}
		if i+1 >= len(segments) {
			return nil, fmt.Errorf("missing %s id in URL", mediaType)
		}
		id := segments[len(segments)-1]
		if id == "" {
			return nil, fmt.Errorf("missing %s id in URL", mediaType)
		}
		return &Link{Type: mediaType, ID: id}, nil
	}

	return nil, errors.New("unrecognized Qobuz URL path")
}
