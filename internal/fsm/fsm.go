// Package fsm defines the closed conversation state machine for an interview session.
package fsm

import "fmt"

type State string

type Event string

const (
	StateGreeting  State = "greeting"
	StateQuestion  State = "question"
	StateWaiting   State = "waiting"
	StateListening State = "listening"
	StateAnalyzing State = "analyzing"
	StateFeedback  State = "feedback"
	StateComplete  State = "complete"
)

const (
	EventIntroDone Event = "intro_done"
	EventReady     Event = "ready"
	EventSpeak     Event = "speak"
	EventSubmit    Event = "submit"
	EventEvaluated Event = "evaluated"
	EventRetry     Event = "retry"
	EventNext      Event = "next"
	EventSkip      Event = "skip"
	EventFinish    Event = "finish"
)

// Transition applies one event to the current state. EventFinish terminates
// from any state; every other pairing not listed returns the unchanged state
// with an error.
func Transition(current State, event Event) (State, error) {
	if event == EventFinish {
		return StateComplete, nil
	}

	switch current {
	case StateGreeting:
		switch event {
		case EventIntroDone:
			return StateQuestion, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateQuestion:
		switch event {
		case EventReady:
			return StateWaiting, nil
		case EventSkip:
			return StateQuestion, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateWaiting:
		switch event {
		case EventSpeak:
			return StateListening, nil
		case EventSkip:
			return StateQuestion, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventSubmit:
			return StateAnalyzing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAnalyzing:
		switch event {
		case EventEvaluated:
			return StateFeedback, nil
		case EventRetry:
			return StateWaiting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFeedback:
		switch event {
		case EventNext:
			return StateQuestion, nil
		case EventSkip:
			return StateQuestion, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateComplete:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
