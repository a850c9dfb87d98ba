// Package search finds entities in users' working queues and past sync
// events. Meilisearch serves queries when reachable; Postgres full-text
// search covers for it otherwise.
package search

// ResultType identifies the kind of record in a search result.
type ResultType string

const (
	ResultEntity ResultType = "entity"
	ResultEvent  ResultType = "event"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	Collection string     `json:"collection"`
	EntityID   string     `json:"entityId"`
	State      string     `json:"state,omitempty"`
}

// Query describes a search request. UserID scopes every query: users only
// see their own queues and events.
type Query struct {
	Text             string
	UserID           string
	FilterType       ResultType // empty = all types
	FilterCollection string
	Limit            int
	Offset           int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push records into a search index.
type Indexer interface {
	IndexEntity(e EntityRecord) error
	IndexEvent(ev EventRecord) error
	DeleteEntity(id string) error
}

// EntityKey builds the index id for a queued entity. Underscores keep the
// key inside Meilisearch's document-id alphabet.
func EntityKey(userID, collection, entityID string) string {
	return userID + "_" + collection + "_" + entityID
}

// EntityRecord is the data we index for one queued entity.
type EntityRecord struct {
	ID         string `json:"id"` // composite of user, collection and entity id
	EntityID   string `json:"entityId"`
	UserID     string `json:"userId"`
	Collection string `json:"collection"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	State      string `json:"state"`
}

// EventRecord is the data we index for a sync event.
type EventRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Collection string `json:"collection"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Outcome    string `json:"outcome"`
	Message    string `json:"message"`
}
