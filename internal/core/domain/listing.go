package domain

// SearchMode decides where a committed search term is evaluated.
// It is fixed for the lifetime of a list.
type SearchMode int

const (
	// SearchModeLocal filters the already-fetched result set on the client.
	SearchModeLocal SearchMode = iota

	// SearchModeRemote forwards the term to the form source.
	SearchModeRemote
)

// String returns the string representation of the mode.
func (m SearchMode) String() string {
	switch m {
	case SearchModeLocal:
		return "local"
	case SearchModeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// SearchState is the search input as seen by a list.
type SearchState struct {
	// RawTerm follows every keystroke.
	RawTerm string

	// CommittedTerm only changes once the debounce interval elapses.
	CommittedTerm string

	// Mode is the search mode of the list.
	Mode SearchMode
}

// PaginationState describes incremental loading progress.
type PaginationState struct {
	TotalLoaded  int
	HasMore      bool
	LoadInFlight bool
}

// DisplayState is the list display mode.
type DisplayState int

const (
	// DisplayLoading means the initial fetch is pending.
	DisplayLoading DisplayState = iota

	// DisplaySearching means a committed term awaits its result.
	DisplaySearching

	// DisplayEmpty means there are no results and nothing is loading.
	DisplayEmpty

	// DisplayReady means results are present.
	DisplayReady

	// DisplayError means the last fetch failed.
	DisplayError
)

// String returns the string representation of the display state.
func (s DisplayState) String() string {
	switch s {
	case DisplayLoading:
		return "loading"
	case DisplaySearching:
		return "searching"
	case DisplayEmpty:
		return "empty"
	case DisplayReady:
		return "ready"
	case DisplayError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchStrategy selects how a feed talks to its source.
type FetchStrategy int

const (
	// FetchAll loads every form in one request.
	FetchAll FetchStrategy = iota

	// FetchIncremental loads pages on demand and supports remote search.
	FetchIncremental
)

// String returns the string representation of the strategy.
func (s FetchStrategy) String() string {
	if s == FetchIncremental {
		return "incremental"
	}
	return "all"
}

// ChooseStrategy picks the fetch strategy for a list. It is evaluated once,
// when the list is built.
func ChooseStrategy(remoteSearch, infiniteScrolling bool) FetchStrategy {
	if remoteSearch || infiniteScrolling {
		return FetchIncremental
	}
	return FetchAll
}
