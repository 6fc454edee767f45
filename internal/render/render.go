package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/pkg/formatter"
)

// PlaceholderAvatar is a transparent 1x1 GIF.
const PlaceholderAvatar = "data:image/gif;base64,R0lGODlhAQABAAD/ACwAAAAAAQABAAACADs="

const (
	cardBaseHeight  = 132
	cardImageHeight = 280
	excerptLineLen  = 60
	excerptLineH    = 20
	TimeLayout      = "2006-01-02 15:04:05"
)

var cardTemplate = template.Must(template.New("card").Parse(
	`<article class="card" data-post-id="{{.ID}}">` +
		`<div class="row between">` +
		`<div class="row">` +
		`<img alt="" width="44" height="44" style="width:44px;height:44px;border-radius:50%;object-fit:cover" src="{{.Avatar}}">` +
		`<div style="margin-left:12px">` +
		`<div style="font-weight:700">{{.AuthorName}}</div>` +
		`<div style="color:var(--muted);font-size:13px">{{.Published}}</div>` +
		`</div>` +
		`</div>` +
		`<div style="color:var(--muted);font-size:13px">{{.Comments}} comments</div>` +
		`</div>` +
		`<h3 style="margin-top:12px;margin-bottom:8px">{{.Title}}</h3>` +
		`<p style="color:var(--muted);margin:0">{{.Excerpt}}</p>` +
		`{{if .Image}}<img style="width:100%;margin-top:12px;border-radius:12px;object-fit:cover" src="{{.Image}}">{{end}}` +
		`</article>`,
))

type cardView struct {
	ID         string
	Avatar     template.URL
	AuthorName string
	Published  string
	Comments   string
	Title      string
	Excerpt    string
	Image      template.URL
}

// Card renders one post as an <article class="card"> fragment. It never
// fails; missing fields get fallbacks.
func Card(post domain.Post) string {
	view := viewOf(post)

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, view); err != nil {
		return fallbackCard(view)
	}
	return buf.String()
}

func viewOf(post domain.Post) cardView {
	avatar := post.AuthorAvatar
	if avatar == "" {
		avatar = PlaceholderAvatar
	}
	name := post.AuthorName
	if name == "" {
		name = "Anonymous"
	}
	published := post.PublishedAt
	if published.IsZero() {
		published = time.Now()
	}

	safeAvatar, ok := safeURL(avatar)
	if !ok {
		safeAvatar = PlaceholderAvatar
	}
	image, _ := safeURL(post.Image)

	return cardView{
		ID:         post.ID,
		Avatar:     safeAvatar,
		AuthorName: name,
		Published:  published.Local().Format(TimeLayout),
		Comments:   formatter.FormatNumber(post.Comments),
		Title:      post.Title,
		Excerpt:    post.Excerpt,
		Image:      image,
	}
}

// safeURL admits data:image URLs and http(s) URLs. html/template would
// otherwise rewrite data: sources to #ZgotmplZ.
func safeURL(s string) (template.URL, bool) {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data:image/") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return template.URL(s), true
	}
	return "", false
}

func fallbackCard(v cardView) string {
	return `<article class="card"><div style="font-weight:700">` + html.EscapeString(v.AuthorName) +
		`</div><p>` + html.EscapeString(v.Excerpt) + `</p></article>`
}

// Height estimates the rendered height of a card in CSS pixels.
func Height(post domain.Post) int {
	h := cardBaseHeight
	lines := (len([]rune(post.Excerpt)) + excerptLineLen - 1) / excerptLineLen
	h += lines * excerptLineH
	if post.Image != "" {
		h += cardImageHeight
	}
	return h
}
