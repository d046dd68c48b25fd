package capture

// State is the lifecycle position of a Loop.
type State int32

const (
	Idle State = iota
	Binding
	Running
	Reporting
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Binding:
		return "binding"
	case Running:
		return "running"
	case Reporting:
		return "reporting"
	case ShuttingDown:
		return "shutting_down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
