package swap

// Stage is a step of the swap lifecycle
type Stage int

const (
	StageForm Stage = iota
	StageCreating
	StageDepositWaiting
	StageConfirming
	StageExecuting
	StageComplete
)

var stageNames = [...]string{"Form", "Creating", "DepositWaiting", "Confirming", "Executing", "Complete"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Event drives a stage transition
type Event int

const (
	EventSubmit Event = iota
	EventOrderCreated
	EventDepositSeen
	EventSettled
	EventFinished
	EventFailed
	EventReset
)

var eventNames = [...]string{"Submit", "OrderCreated", "DepositSeen", "Settled", "Finished", "Failed", "Reset"}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "Unknown"
	}
	return eventNames[e]
}

// Next is the lifecycle transition function. It reports false when the
// event does not apply to the current stage, in which case the stage is
// returned unchanged.
func Next(s Stage, e Event) (Stage, bool) {
	switch e {
	case EventSubmit:
		if s == StageForm {
			return StageCreating, true
		}
	case EventOrderCreated:
		if s == StageCreating {
			return StageDepositWaiting, true
		}
	case EventDepositSeen:
		if s == StageDepositWaiting {
			return StageConfirming, true
		}
	case EventSettled:
		if s == StageConfirming {
			return StageExecuting, true
		}
	case EventFinished:
		if s != StageForm && s != StageComplete {
			return StageComplete, true
		}
	case EventFailed, EventReset:
		if s != StageForm {
			return StageForm, true
		}
	}
	return s, false
}
