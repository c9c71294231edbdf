package domain

// FeedRequest opens a stream of form data for one patient list.
type FeedRequest struct {
	PatientUUID string
	VisitUUID   string
	OrderBy     OrderBy

	// Offline reads from the local snapshot instead of the remote source.
	Offline bool

	// Strategy is fixed for the lifetime of the feed.
	Strategy FetchStrategy

	// PageSize is used by incremental feeds. Zero picks the default.
	PageSize int
}

// FeedState is a snapshot of a feed as reported to its subscribers.
type FeedState struct {
	// Term is the search term the forms were fetched for.
	Term string

	// Forms holds every form loaded so far for Term.
	Forms ResultSet

	// Total is the total number of matching forms, when the source knows it.
	Total int

	// HasMore reports whether further pages exist.
	HasMore bool

	// Loading is true while the first page for Term is being fetched.
	Loading bool

	// Validating is true while any request is in flight.
	Validating bool

	// Err is the last fetch error, if any.
	Err error
}

// Pagination derives the pagination view of the state.
func (s FeedState) Pagination() PaginationState {
	return PaginationState{
		TotalLoaded:  len(s.Forms),
		HasMore:      s.HasMore,
		LoadInFlight: s.Validating,
	}
}
