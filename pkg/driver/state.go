package driver

import "fmt"

// State represents a driver's state.
type State string

const (
	// StateClosed means that the driver has not been opened; nothing about
	// the hardware is known yet.
	StateClosed State = "closed"
	// StateOpened means that the driver is open and capabilities may be
	// queried.
	StateOpened State = "opened"
	// StateRunning means that the driver is streaming frames.
	StateRunning State = "running"
)

// Update transitions s to next if the transition is legal and f succeeds.
// On failure s is unchanged.
func (s *State) Update(next State, f func() error) error {
	if err := s.check(next); err != nil {
		return err
	}

	err := f()
	if err == nil {
		*s = next
	}
	return err
}

func (s *State) check(next State) error {
	switch next {
	case StateOpened:
		if *s != StateClosed {
			return fmt.Errorf("invalid state: driver is already opened")
		}
	case StateRunning:
		if *s == StateClosed {
			return fmt.Errorf("invalid state: driver is closed")
		}
		if *s == StateRunning {
			return fmt.Errorf("invalid state: driver is already running")
		}
	case StateClosed:
	default:
		return fmt.Errorf("invalid state: unknown state %q", next)
	}
	return nil
}
