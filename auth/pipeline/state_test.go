package pipeline

import "testing"

func TestStateString(t *testing.T) {
	want := map[state]string{
		stateStart:     "start",
		stateLocating:  "locating_credentials",
		stateLogin:     "login_flow",
		stateToken:     "token_flow",
		stateAnonymous: "anonymous",
		statePopulated: "populated",
		stateDone:      "done",
		stateRejected:  "rejected",
		stateAbandoned: "abandoned",
		state(99):      "unknown",
	}
	for s, name := range want {
		if got := s.String(); got != name {
			t.Errorf("state(%d).String() = %q, want %q", int(s), got, name)
		}
	}
}
