package driving

import (
	"context"

	"github.com/custodia-labs/patientforms/internal/core/domain"
)

// FormFeed streams form data for one rendered list.
// Its fetch strategy is fixed when the feed is opened.
type FormFeed interface {
	// Start issues the initial fetch.
	Start()

	// Search refetches from the first page for term.
	// Feeds opened with the FetchAll strategy ignore it.
	Search(term string)

	// LoadMore fetches the next page. It is a no-op while a request is in flight
	// or when no pages remain.
	LoadMore()

	// Reload discards loaded data and fetches again.
	Reload()

	// Subscribe registers fn for state changes and returns a cancel function.
	Subscribe(fn func(domain.FeedState)) (cancel func())

	// State returns the current state.
	State() domain.FeedState

	// Strategy returns the fetch strategy of the feed.
	Strategy() domain.FetchStrategy

	// Close cancels in-flight requests and drops subscribers.
	Close()
}

// FormService provides form listing to external actors.
type FormService interface {
	// OpenFeed creates a feed for a patient's forms.
	OpenFeed(ctx context.Context, req domain.FeedRequest) (FormFeed, error)

	// ListForms fetches forms in one call, for non-interactive use.
	ListForms(ctx context.Context, query domain.FormQuery, offline bool) (domain.FormPage, error)

	// Sync copies a patient's forms from the remote source into the offline snapshot.
	Sync(ctx context.Context, patientUUID, visitUUID string) (int, error)
}
