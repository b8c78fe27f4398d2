package applier

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

type Incrementality string

const (
	FullDataset  Incrementality = "FULL_DATASET"
	Differential Incrementality = "DIFFERENTIAL"
)

// BatchResult is the outcome of applying a batch. Failed updates never stop
// the rest of the batch.
type BatchResult struct {
	FeedID string

	Successes []*ctdf.RealTimeTripUpdate
	Errors    []*tripupdate.UpdateError
	Warnings  []tripupdate.WarningType
}

func (r *BatchResult) Total() int {
	return len(r.Successes) + len(r.Errors)
}

func (r *BatchResult) ErrorsByType() map[tripupdate.ErrorType]int {
	counts := map[tripupdate.ErrorType]int{}
	for _, err := range r.Errors {
		counts[err.Type]++
	}

	return counts
}

func (r *BatchResult) addSuccess(update *ctdf.RealTimeTripUpdate, success tripupdate.UpdateSuccess) {
	r.Successes = append(r.Successes, update)
	r.Warnings = append(r.Warnings, success.Warnings...)
}

func (r *BatchResult) addError(err *tripupdate.UpdateError) {
	r.Errors = append(r.Errors, err)
}
