package offline

// LifecycleState is the progression of one worker instance.
type LifecycleState string

const (
	StateInstalling LifecycleState = "installing"
	// StateInstalled is the waiting state: ready, but not in control.
	StateInstalled  LifecycleState = "installed"
	StateActivating LifecycleState = "activating"
	StateActivated  LifecycleState = "activated"
	// StateRedundant is terminal: the instance was superseded or unregistered.
	StateRedundant LifecycleState = "redundant"
)

var allowedTransitions = map[LifecycleState][]LifecycleState{
	StateInstalling: {StateInstalled, StateRedundant},
	StateInstalled:  {StateActivating, StateRedundant},
	StateActivating: {StateActivated, StateRedundant},
	StateActivated:  {StateRedundant},
}

// IsWaiting reports whether the worker is installed and awaiting promotion
func (s LifecycleState) IsWaiting() bool {
	return s == StateInstalled
}

// IsTerminal reports whether no further transitions are possible
func (s LifecycleState) IsTerminal() bool {
	return s == StateRedundant
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s LifecycleState) CanTransitionTo(next LifecycleState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// UpdatePolicy selects how a waiting worker gets promoted.
type UpdatePolicy string

const (
	// PolicyEager promotes right after install, without asking the user.
	PolicyEager UpdatePolicy = "eager"
	// PolicyDeferred waits for a promote message from the foreground.
	PolicyDeferred UpdatePolicy = "deferred"
)

// IsValid reports whether p is a known policy
func (p UpdatePolicy) IsValid() bool {
	return p == PolicyEager || p == PolicyDeferred
}
