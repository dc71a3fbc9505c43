package retriever

import (
	"context"
	"errors"
)

// ErrRetrievalUnavailable marks a failure to reach or query the document
// index. Zero matches is not a failure.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Snippet is one retrieved passage. Rank is the 1-based position in the
// index service's own ordering; no local re-ranking happens.
type Snippet struct {
	Source  string `json:"source"`
	Excerpt string `json:"excerpt"`
	Rank    int    `json:"rank"`
}

// Retriever performs a semantic lookup against a managed document index.
// Every call is a fresh round trip; results are request-scoped.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}
