package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/orgball2608/deso-feed/internal/dataurl"
	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/pkg/formatter"
)

const (
	ExcerptLength   = 160
	AnonymousAuthor = "Anonymous"
	timestampNoZone = "2006-01-02T15:04:05.999999999"
)

type Normalizer struct {
	Now func() time.Time
}

var defaultNormalizer = Normalizer{Now: time.Now}

// Normalize maps a node with the wall clock as the last timestamp fallback.
func Normalize(node domain.Node) domain.Post {
	return defaultNormalizer.Normalize(node)
}

func NormalizeAll(nodes []domain.Node) []domain.Post {
	posts := make([]domain.Post, 0, len(nodes))
	for _, n := range nodes {
		posts = append(posts, Normalize(n))
	}
	return posts
}

func (n Normalizer) Normalize(node domain.Node) domain.Post {
	extra := parseExtra(node.ExtraData)

	poster := node.Poster
	if poster == nil {
		poster = node.Author
	}
	if poster == nil {
		poster = &domain.Poster{}
	}
	profile := poster.Profile
	if profile == nil {
		profile = &domain.Profile{}
	}

	return domain.Post{
		ID:           first(node.PostHash, node.ID),
		Title:        first(extra.str("title"), node.Title),
		Body:         node.Body,
		Excerpt:      formatter.TruncateRunes(node.Body, ExcerptLength),
		Image:        first(extra.str("image"), extra.str("img"), node.Image),
		AuthorName:   first(poster.Username, profile.Username, extra.str("author"), extra.str("authorName"), AnonymousAuthor),
		AuthorAvatar: avatar(poster, profile, extra),
		PublishedAt:  n.publishedAt(node),
		Comments:     0,
	}
}

func avatar(poster *domain.Poster, profile *domain.Profile, extra extraData) string {
	extraAvatar := first(extra.str("authorAvatar"), extra.str("avatar"))
	for _, candidate := range []string{poster.ProfilePic, profile.ProfilePic, extraAvatar} {
		if candidate == "" {
			continue
		}
		if url := dataurl.FromHex(candidate); url != "" {
			return url
		}
	}
	// Plain URLs in extra data are not hex, keep them as they are.
	return extraAvatar
}

func (n Normalizer) publishedAt(node domain.Node) time.Time {
	if t, ok := parseTimestamp(node.Timestamp); ok {
		return t
	}
	if t, ok := parseTimestamp(node.CreatedAt); ok {
		return t
	}
	now := n.Now
	if now == nil {
		now = time.Now
	}
	return now()
}

// parseTimestamp accepts unix milliseconds (number or numeric string) and
// ISO-8601 strings. Zero, null and unparsable values count as absent.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num == 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(num)), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms != 0 {
		return time.UnixMilli(ms), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(timestampNoZone, s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

type extraData map[string]any

// parseExtra decodes extraData given as an object or a JSON-encoded string.
// Anything malformed is treated as absent.
func parseExtra(raw json.RawMessage) extraData {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return nil
		}
		raw = []byte(s)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func (e extraData) str(key string) string {
	if e == nil {
		return ""
	}
	s, _ := e[key].(string)
	return s
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
