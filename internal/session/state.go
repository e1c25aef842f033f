package session

import "github.com/datawhisper/datawhisper/internal/table"

const unknownFailure = "An unknown error occurred"

// State is the whole view model of one client. It is never mutated in place;
// Reduce returns a replacement for every accepted event.
type State struct {
	Input           string
	TranslatedQuery string
	Rows            []table.Row
	Busy            bool
	ErrorText       string
	Generation      uint64
}

// HasError reports whether the last submission failed.
func (s State) HasError() bool { return s.ErrorText != "" }

// HasResult reports whether the last submission succeeded. A successful
// query with zero rows still counts.
func (s State) HasResult() bool { return !s.Busy && !s.HasError() && s.Rows != nil }

type Event interface {
	isEvent()
}

type InputChanged struct {
	Text string
}

type SubmitRequested struct {
	Generation uint64
	Text       string
}

type RequestSucceeded struct {
	Generation      uint64
	TranslatedQuery string
	Rows            []table.Row
}

type RequestFailed struct {
	Generation uint64
	Message    string
}

func (InputChanged) isEvent()     {}
func (SubmitRequested) isEvent()  {}
func (RequestSucceeded) isEvent() {}
func (RequestFailed) isEvent()    {}

// Reduce applies one event. Terminal events that do not belong to the
// in-flight generation are dropped, so a slow earlier request can never
// overwrite the outcome of a later one.
func Reduce(state State, event Event) State {
	switch e := event.(type) {
	case InputChanged:
		if state.Busy {
			return state
		}
		next := state
		next.Input = e.Text
		return next
	case SubmitRequested:
		return State{
			Input:      e.Text,
			Busy:       true,
			Generation: e.Generation,
		}
	case RequestSucceeded:
		if !state.Busy || e.Generation != state.Generation {
			return state
		}
		rows := e.Rows
		if rows == nil {
			rows = []table.Row{}
		}
		return State{
			Input:           state.Input,
			TranslatedQuery: e.TranslatedQuery,
			Rows:            rows,
			Generation:      state.Generation,
		}
	case RequestFailed:
		if !state.Busy || e.Generation != state.Generation {
			return state
		}
		message := e.Message
		if message == "" {
			message = unknownFailure
		}
		return State{
			Input:      state.Input,
			ErrorText:  message,
			Generation: state.Generation,
		}
	default:
		return state
	}
}
