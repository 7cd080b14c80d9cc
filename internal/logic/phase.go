package logic

// DefaultLimits matches three wake cycles per phase.
var DefaultLimits = Limits{A: 3, B: 3}

func (l Limits) of(p Phase) uint32 {
	n := l.A
	if p == PhaseB {
		n = l.B
	}
	if n == 0 {
		return 1
	}
	return n
}

// Advance runs the phase/cycle transition for one activation.
// It returns the state to persist and the phase whose strategy must run now.
// Once the wake count passes the limit of the current phase, the phase flips
// and the count restarts at 1 within the same activation.
func Advance(s PersistentState, limits Limits) (PersistentState, Phase) {
	s.WakeCount++
	if s.WakeCount <= limits.of(s.Phase) {
		return s, s.Phase
	}
	s.Phase = s.Phase.other()
	s.WakeCount = 1
	return s, s.Phase
}

func (p Phase) other() Phase {
	if p == PhaseB {
		return PhaseA
	}
	return PhaseB
}

// Plan decides whether the activation uploads.
// Phase A always uploads, even without a valid reading.
// Phase B uploads only for a valid reading at or below threshold; otherwise
// the network stays off for the whole activation.
func Plan(phase Phase, d Distance, threshold Distance) Decision {
	if phase == PhaseB {
		return Decision{
			Phase:  PhaseB,
			Tag:    TagConditional,
			Upload: d.Valid() && d <= threshold,
		}
	}
	return Decision{Phase: PhaseA, Tag: TagPeriodic, Upload: true}
}
