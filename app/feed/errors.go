package feed

import "fmt"

// Stage identifies the processing phase a feed failure occurred in.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageParse     Stage = "parse"
	StageStructure Stage = "structure"
	StagePersist   Stage = "persist"
)

// FeedError is the failure type for all fallible feed operations. It carries
// the source feed URL and the stage so a failing feed can be diagnosed and
// skipped without restarting the run; no feed failure aborts the process.
type FeedError struct {
	URL   string
	Stage Stage
	Err   error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func newFeedError(url string, stage Stage, err error) *FeedError {
	return &FeedError{URL: url, Stage: stage, Err: err}
}
