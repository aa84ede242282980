package security

import "errors"

// LoginState is a step of the login handshake.
type LoginState string

const (
	StateAnonymous      LoginState = "anonymous"
	StateAuthenticating LoginState = "authenticating"
	StateAuthenticated  LoginState = "authenticated"
	StateRejected       LoginState = "rejected"
)

// loginTransitions defines the allowed handshake transitions.
// Logout is modelled as Authenticated -> Anonymous.
var loginTransitions = map[LoginState][]LoginState{
	StateAnonymous:      {StateAuthenticating},
	StateAuthenticating: {StateAuthenticated, StateRejected},
	StateRejected:       {StateAnonymous},
	StateAuthenticated:  {StateAnonymous},
}

var ErrInvalidLoginTransition = errors.New("invalid login state transition")

// CanTransitionTo reports whether moving from s to next is allowed.
func (s LoginState) CanTransitionTo(next LoginState) bool {
	for _, allowed := range loginTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
