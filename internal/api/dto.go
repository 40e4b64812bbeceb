package api

import (
	"time"

	"github.com/starford/logpress/internal/catalog"
	"github.com/starford/logpress/internal/siteservice"
)

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = siteservice.PageDetail

// PageListItem is a lightweight item in a list response.
type PageListItem = siteservice.PageListItem

// PageListResponse wraps paginated page listings.
type PageListResponse struct {
	Pages []PageListItem `json:"pages"`
	Total int            `json:"total"`
}

// StubListResponse wraps the stub listing.
type StubListResponse struct {
	Stubs []PageListItem `json:"stubs"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results"`
}

// BacklinksResponse lists the links pointing at one target.
type BacklinksResponse struct {
	Target string            `json:"target"`
	Links  []catalog.LinkRow `json:"links"`
}

// Resolution is the response of GET /resolve.
type Resolution = siteservice.Resolution

// QueryResult is the response of GET /query.
type QueryResult = siteservice.QueryResult

// BuildResponse describes the snapshot currently served.
type BuildResponse struct {
	BuiltAt time.Time `json:"built_at"`
	Pages   int       `json:"pages"`
	Stubs   int       `json:"stubs"`
}
