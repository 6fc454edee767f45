package domain

import (
	"encoding/json"
	"time"
)

// Node is a post as returned by the DeSo GraphQL API.
type Node struct {
	PostHash  string          `json:"postHash"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Image     string          `json:"image"`
	ExtraData json.RawMessage `json:"extraData"` // object, JSON-encoded string or null
	Poster    *Poster         `json:"poster"`
	Author    *Poster         `json:"author"`
	Timestamp json.RawMessage `json:"timestamp"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

type Poster struct {
	Username   string          `json:"username"`
	ProfilePic string          `json:"profilePic"`
	ExtraData  json.RawMessage `json:"extraData"`
	Profile    *Profile        `json:"profile"`
}

type Profile struct {
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

// Post is the display-ready form of a Node. Every field has a fallback.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Excerpt      string    `json:"excerpt"`
	Image        string    `json:"image,omitempty"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar"`
	PublishedAt  time.Time `json:"publishedAt"`
	Comments     int       `json:"comments"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type Page struct {
	Posts    []Post   `json:"posts"`
	PageInfo PageInfo `json:"pageInfo"`
}
