package spec

// Phase is a lifecycle stage tracked on every spec issue regardless of its content.
// The order is for display only; any phase may be completed independently.
type Phase string

const (
	PhaseIdea           Phase = "Idea/Todo"
	PhaseDesignReview   Phase = "ADR/Design Review"
	PhasePlan           Phase = "Plan"
	PhaseTasks          Phase = "Tasks"
	PhaseImplementation Phase = "Implementation"
	PhaseRelease        Phase = "Release"
	PhaseClose          Phase = "Close"
)

// Phases returns all lifecycle phases in display order.
func Phases() []Phase {
	return []Phase{
		PhaseIdea,
		PhaseDesignReview,
		PhasePlan,
		PhaseTasks,
		PhaseImplementation,
		PhaseRelease,
		PhaseClose,
	}
}

func (p Phase) String() string {
	return string(p)
}
