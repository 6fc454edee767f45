// Package page holds the server-side document the feed is rendered into.
//
// The document is the page skeleton parsed with goquery. The element
// matching FeedSelector is the feed container; when it is missing every
// feed operation is a silent no-op.
package page

import (
	_ "embed"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

const (
	FeedSelector    = ".feed"
	NavSelector     = ".sidebar .nav"
	SidebarSelector = ".sidebar"
	ToggleSelector  = ".menu-toggle"

	// Heights in CSS pixels used for layout estimation.
	HeaderHeight   = 64
	SkeletonHeight = 136
)

//go:embed skeleton.html
var skeletonHTML string

const navHTML = `
<a class="nav-item active" href="#" data-i18n="nav.home">Home</a>
<a class="nav-item" href="#" data-i18n="nav.explore">Explore</a>
<a class="nav-item" href="#" data-i18n="nav.notifications">Notifications</a>
<a class="nav-item" href="#" data-i18n="nav.profile">Profile</a>
<a class="nav-item" href="#" data-i18n="nav.create">Post</a>
`

type Document struct {
	mu  sync.RWMutex
	doc *goquery.Document

	viewportHeight int
	scrollY        int
	// feedHeights mirrors the children of the feed container.
	feedHeights []int
}

func Parse(r io.Reader, viewportHeight int) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	d := &Document{doc: doc, viewportHeight: viewportHeight}
	if feed := d.feed(); feed != nil {
		n := feed.Children().Length()
		d.feedHeights = make([]int, n)
		for i := range d.feedHeights {
			d.feedHeights[i] = SkeletonHeight
		}
	}
	return d, nil
}

// NewDefault parses the built-in skeleton page.
func NewDefault(viewportHeight int) *Document {
	d, err := Parse(strings.NewReader(skeletonHTML), viewportHeight)
	if err != nil {
		panic("page: built-in skeleton does not parse: " + err.Error())
	}
	return d
}

func (d *Document) feed() *goquery.Selection {
	sel := d.doc.Find(FeedSelector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

func (d *Document) HasFeed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.feed() != nil
}

func (d *Document) FeedLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if feed := d.feed(); feed != nil {
		return feed.Children().Length()
	}
	return 0
}

// ClearFeed removes every child of the feed container.
func (d *Document) ClearFeed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if feed := d.feed(); feed != nil {
		feed.Empty()
		d.feedHeights = nil
	}
}

// AppendToFeed appends an HTML fragment and records its estimated height.
// Returns false when the document has no feed container.
func (d *Document) AppendToFeed(fragment string, height int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	feed := d.feed()
	if feed == nil {
		return false
	}
	feed.AppendHtml(fragment)
	d.feedHeights = append(d.feedHeights, height)
	return true
}

// RestoreSidebar swaps the skeleton navigation for the real links. It runs
// once; later calls and documents without a nav return false.
func (d *Document) RestoreSidebar() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	nav := d.doc.Find(NavSelector).First()
	if nav.Length() == 0 {
		return false
	}
	if nav.AttrOr("data-restored", "") == "true" {
		return false
	}

	nav.SetHtml(navHTML)
	nav.SetAttr("data-restored", "true")
	nav.SetAttr("style", "transition: opacity 180ms ease; opacity: 1")
	return true
}

// ToggleSidebar opens or closes the mobile sidebar and reports the new state.
func (d *Document) ToggleSidebar() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	sidebar := d.doc.Find(SidebarSelector).First()
	if sidebar.Length() == 0 {
		return false
	}
	open := !sidebar.HasClass("open")
	if open {
		sidebar.AddClass("open")
	} else {
		sidebar.RemoveClass("open")
	}

	expanded := "false"
	if open {
		expanded = "true"
	}
	d.doc.Find(ToggleSelector).SetAttr("aria-expanded", expanded)
	return open
}

func (d *Document) SidebarOpen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Find(SidebarSelector).First().HasClass("open")
}

func (d *Document) ViewportHeight() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.viewportHeight
}

func (d *Document) ScrollY() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scrollY
}

// ScrollHeight estimates the full document height.
func (d *Document) ScrollHeight() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h := HeaderHeight
	for _, fh := range d.feedHeights {
		h += fh
	}
	return h
}

// SetScroll records the viewer's scroll position. A non-positive viewport
// height keeps the current one.
func (d *Document) SetScroll(scrollY, viewportHeight int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if scrollY < 0 {
		scrollY = 0
	}
	d.scrollY = scrollY
	if viewportHeight > 0 {
		d.viewportHeight = viewportHeight
	}
}

func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Html()
}

// FeedHTML returns the inner HTML of the feed container.
func (d *Document) FeedHTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	feed := d.feed()
	if feed == nil {
		return ""
	}
	html, _ := feed.Html()
	return html
}
