package postsimpl

import (
	"context"

	"github.com/orgball2608/deso-feed/internal/domain"
	"github.com/orgball2608/deso-feed/internal/graphql"
	"github.com/orgball2608/deso-feed/internal/normalizer"
	"github.com/orgball2608/deso-feed/internal/posts"
	"github.com/orgball2608/deso-feed/pkg/errors"
	"github.com/orgball2608/deso-feed/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	GraphQL graphql.Client
	Logger  logger.Logger
}

type PostsImpl struct {
	GraphQL    graphql.Client
	Logger     logger.Logger
	Normalizer normalizer.Normalizer
}

func New(opts Opts) *PostsImpl {
	return &PostsImpl{
		GraphQL:    opts.GraphQL,
		Logger:     opts.Logger.WithComponent("Posts"),
		Normalizer: normalizer.Normalizer{},
	}
}

var _ posts.Client = (*PostsImpl)(nil)

type postsData struct {
	Posts *struct {
		Nodes    []domain.Node    `json:"nodes"`
		PageInfo *domain.PageInfo `json:"pageInfo"`
	} `json:"posts"`
}

func (d postsData) nodes() []domain.Node {
	if d.Posts == nil {
		return nil
	}
	return d.Posts.Nodes
}

func (d postsData) pageInfo() domain.PageInfo {
	if d.Posts == nil || d.Posts.PageInfo == nil {
		return domain.PageInfo{HasNextPage: false, EndCursor: nil}
	}
	return *d.Posts.PageInfo
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return posts.DefaultLimit
	}
	return limit
}

func (p *PostsImpl) normalize(nodes []domain.Node) []domain.Post {
	out := make([]domain.Post, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, p.Normalizer.Normalize(n))
	}
	return out
}

// FetchPostsPage fetches one page of the global feed.
func (p *PostsImpl) FetchPostsPage(ctx context.Context, first int, after *string) (domain.Page, error) {
	var data postsData
	err := p.GraphQL.Do(ctx, graphql.Request{
		Query: fetchPostsPageQuery,
		Variables: map[string]any{
			"first": limitOrDefault(first),
			"after": after,
		},
	}, &data)
	if err != nil {
		return domain.Page{}, errors.Wrap(err, "fetch posts page")
	}

	return domain.Page{
		Posts:    p.normalize(data.nodes()),
		PageInfo: data.pageInfo(),
	}, nil
}

func (p *PostsImpl) FetchPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	page, err := p.FetchPostsPage(ctx, limit, nil)
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// SearchPostsByBody returns posts whose body contains searchTerm, case-insensitively.
func (p *PostsImpl) SearchPostsByBody(ctx context.Context, searchTerm string, limit int) ([]domain.Post, error) {
	var data postsData
	err := p.GraphQL.Do(ctx, graphql.Request{
		Query: searchBodyQuery,
		Variables: map[string]any{
			"searchTerm": searchTerm,
			"first":      limitOrDefault(limit),
		},
	}, &data)
	if err != nil {
		return nil, errors.Wrap(err, "search posts by body")
	}
	return p.normalize(data.nodes()), nil
}

// PostsByExtra returns posts whose extraData contains every key of extra.
func (p *PostsImpl) PostsByExtra(ctx context.Context, extra map[string]any, limit int) ([]domain.Post, error) {
	if extra == nil {
		extra = map[string]any{}
	}

	var data postsData
	err := p.GraphQL.Do(ctx, graphql.Request{
		Query: postsByExtraQuery,
		Variables: map[string]any{
			"extra": extra,
			"first": limitOrDefault(limit),
		},
	}, &data)
	if err != nil {
		return nil, errors.Wrap(err, "posts by extra data")
	}
	return p.normalize(data.nodes()), nil
}
