package spec

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Stage is the logical project-board column of a spec issue.
type Stage string

// Stage values double as statekit state ids.
const (
	StageBacklog    Stage = "backlog"
	StageInProgress Stage = "in_progress"
	StageDone       Stage = "done"
)

// StageContext carries the spec the machine is tracking.
type StageContext struct {
	SpecID string
}

// StageMachine moves a spec forward through the board stages.
// It never moves backwards: only progress observed on the tracker drives it.
type StageMachine struct {
	interpreter *statekit.Interpreter[StageContext]
}

func NewStageMachine(specID string) (*StageMachine, error) {
	builder := statekit.NewMachine[StageContext]("spec-stage").
		WithInitial(statekit.StateID(StageBacklog)).
		WithContext(StageContext{SpecID: specID})

	builder.State(statekit.StateID(StageBacklog)).
		On("start").Target(statekit.StateID(StageInProgress)).
		On("finish").Target(statekit.StateID(StageDone)).
		Done()

	builder.State(statekit.StateID(StageInProgress)).
		On("finish").Target(statekit.StateID(StageDone)).
		Done()

	builder.State(statekit.StateID(StageDone)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build stage machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StageMachine{interpreter: interpreter}, nil
}

// Send delivers an event. Events that are not valid in the current stage are ignored.
func (sm *StageMachine) Send(event string) {
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (sm *StageMachine) Current() Stage {
	return Stage(sm.interpreter.State().Value)
}

// InferStage derives the board stage from completion counts.
// Nothing complete stays in backlog; everything complete is done.
func InferStage(specID string, completed, total int) Stage {
	sm, err := NewStageMachine(specID)
	if err != nil {
		return StageBacklog
	}
	if completed > 0 {
		sm.Send("start")
	}
	if total > 0 && completed >= total {
		sm.Send("finish")
	}
	return sm.Current()
}
