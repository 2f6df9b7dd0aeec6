package driver

import (
	"errors"
	"testing"
)

func TestStateTransitions(t *testing.T) {
	nop := func() error { return nil }

	testDataSet := map[string]struct {
		from State
		to   State
		ok   bool
	}{
		"ClosedToOpened":   {StateClosed, StateOpened, true},
		"OpenedToRunning":  {StateOpened, StateRunning, true},
		"OpenedToClosed":   {StateOpened, StateClosed, true},
		"RunningToClosed":  {StateRunning, StateClosed, true},
		"ClosedToRunning":  {StateClosed, StateRunning, false},
		"OpenedToOpened":   {StateOpened, StateOpened, false},
		"RunningToRunning": {StateRunning, StateRunning, false},
	}

	for name, testData := range testDataSet {
		testData := testData
		t.Run(name, func(t *testing.T) {
			s := testData.from
			err := s.Update(testData.to, nop)
			if testData.ok && err != nil {
				t.Errorf("expected transition to succeed, got %v", err)
			}
			if !testData.ok && err == nil {
				t.Error("expected transition to fail")
			}
			if testData.ok && s != testData.to {
				t.Errorf("state not updated: %v", s)
			}
			if !testData.ok && s != testData.from {
				t.Errorf("state changed on failed transition: %v", s)
			}
		})
	}
}

func TestStateUpdateKeepsStateOnError(t *testing.T) {
	s := StateClosed
	boom := errors.New("boom")
	if err := s.Update(StateOpened, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped function error, got %v", err)
	}
	if s != StateClosed {
		t.Errorf("state must stay unchanged when the function fails, got %v", s)
	}
}
