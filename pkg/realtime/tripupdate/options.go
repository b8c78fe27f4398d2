package tripupdate

type ForwardsPropagation string

const (
	ForwardsPropagationDefault ForwardsPropagation = "DEFAULT"
	ForwardsPropagationNone    ForwardsPropagation = "NONE"
)

type BackwardsPropagation string

const (
	BackwardsPropagationRequired BackwardsPropagation = "REQUIRED"
	BackwardsPropagationAlways   BackwardsPropagation = "ALWAYS"
	BackwardsPropagationNone     BackwardsPropagation = "NONE"
)

type StopReplacementConstraint string

const (
	StopReplacementAnyStop           StopReplacementConstraint = "ANY_STOP"
	StopReplacementNotAllowed        StopReplacementConstraint = "NOT_ALLOWED"
	StopReplacementSameParentStation StopReplacementConstraint = "SAME_PARENT_STATION"
)

type StopUpdateStrategy string

const (
	// Every stop of the pattern is present, in order
	StopUpdateStrategyFull StopUpdateStrategy = "FULL_UPDATE"
	// Only some stops are present, addressed by sequence or stop id
	StopUpdateStrategyPartial StopUpdateStrategy = "PARTIAL_UPDATE"
)

type UpdateOptions struct {
	ForwardsPropagation       ForwardsPropagation
	BackwardsPropagation      BackwardsPropagation
	StopReplacementConstraint StopReplacementConstraint
	StopUpdateStrategy        StopUpdateStrategy

	// Reject added trips referencing unknown stops instead of dropping the stops
	StrictNewTrips bool
}

func DefaultGTFSRTOptions() UpdateOptions {
	return UpdateOptions{
		ForwardsPropagation:       ForwardsPropagationDefault,
		BackwardsPropagation:      BackwardsPropagationRequired,
		StopReplacementConstraint: StopReplacementAnyStop,
		StopUpdateStrategy:        StopUpdateStrategyPartial,
	}
}

func DefaultSIRIOptions() UpdateOptions {
	return UpdateOptions{
		ForwardsPropagation:       ForwardsPropagationNone,
		BackwardsPropagation:      BackwardsPropagationRequired,
		StopReplacementConstraint: StopReplacementSameParentStation,
		StopUpdateStrategy:        StopUpdateStrategyFull,
	}
}
