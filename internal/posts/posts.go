package posts

import (
	"context"

	"github.com/orgball2608/deso-feed/internal/domain"
)

const DefaultLimit = 20

//go:generate go run go.uber.org/mock/mockgen -source=posts.go -destination=mocks/mock.go
type Client interface {
	// FetchPostsPage returns one page ordered newest first. A nil after
	// starts from the beginning.
	FetchPostsPage(ctx context.Context, first int, after *string) (domain.Page, error)
	// FetchPosts returns the first page only.
	FetchPosts(ctx context.Context, limit int) ([]domain.Post, error)
	SearchPostsByBody(ctx context.Context, searchTerm string, limit int) ([]domain.Post, error)
	PostsByExtra(ctx context.Context, extra map[string]any, limit int) ([]domain.Post, error)
}
