package launch

// State is a state in the launch orchestrator's FSM.
type State int

// States and their transitions. Each is implemented by a stateFunc in its
// own file.
const (
	// Terminal halts the fsm and returns the controller's current plan.
	Terminal State = iota
	// ResolveJNLP fetches and parses the server's JNLP descriptor.
	// Transitions: MaterializeArtifacts, Error
	ResolveJNLP
	// MaterializeArtifacts downloads (or reuses cached) jar resources.
	// Transitions: VerifyArtifacts, Error
	MaterializeArtifacts
	// VerifyArtifacts runs the jarsigner signature check over every
	// materialized jar, when the connection requires it.
	// Transitions: BuildPlan, Error
	VerifyArtifacts
	// BuildPlan partitions the classpath and builds the argument vector.
	// Transitions: Terminal, Error
	BuildPlan
	// Error is a terminal state reached after any stateFunc fails.
	Error
)

func (s State) String() string {
	switch s {
	case Terminal:
		return "Terminal"
	case ResolveJNLP:
		return "ResolveJNLP"
	case MaterializeArtifacts:
		return "MaterializeArtifacts"
	case VerifyArtifacts:
		return "VerifyArtifacts"
	case BuildPlan:
		return "BuildPlan"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}
