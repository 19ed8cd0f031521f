package video

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalidURL = errors.New("invalid YouTube URL")

var embedPathRe = regexp.MustCompile(`^/(embed|v)/([^/?]+)`)

// ExtractID returns the video identifier carried by a YouTube URL.
// Recognized shapes are watch URLs with a "v" query parameter, youtu.be
// short links, and /embed/<id> or /v/<id> paths on any host.
func ExtractID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	host := u.Hostname()
	if host == "www.youtube.com" || host == "youtube.com" {
		if v := u.Query()["v"]; len(v) > 0 && v[0] != "" {
			return v[0], true
		}
	}

	if host == "youtu.be" {
		if id := strings.TrimLeft(u.Path, "/"); id != "" {
			return id, true
		}
	}

	if m := embedPathRe.FindStringSubmatch(u.Path); m != nil {
		return m[2], true
	}

	return "", false
}
