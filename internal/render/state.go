package render

import "fmt"

type phase int

const (
	phaseNew phase = iota
	phaseIdle
	phaseFrame
	phaseGroup
	phaseClosed
)

// tracker enforces the call protocol shared by all renderers:
// Init, then any number of Begin ... End frames holding non-nested groups,
// then Cleanup. The first error sticks.
type tracker struct {
	phase phase
	group Group
	err   error
}

func (s *tracker) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *tracker) violation(op string) bool {
	s.fail(fmt.Errorf("%w: %s in phase %d", ErrState, op, s.phase))
	return false
}

func (s *tracker) init() bool {
	if s.phase != phaseNew {
		return s.violation("init")
	}
	s.phase = phaseIdle
	return true
}

func (s *tracker) begin() bool {
	if s.phase != phaseIdle {
		return s.violation("begin")
	}
	s.phase = phaseFrame
	return true
}

func (s *tracker) end() bool {
	if s.phase != phaseFrame {
		return s.violation("end")
	}
	s.phase = phaseIdle
	return true
}

func (s *tracker) beginGroup(g Group) bool {
	if g < 0 || g >= groupCount {
		s.fail(fmt.Errorf("%w: unknown group %d", ErrState, int(g)))
		return false
	}
	if s.phase != phaseFrame {
		return s.violation("begin group " + g.String())
	}
	s.phase = phaseGroup
	s.group = g
	return true
}

func (s *tracker) endGroup(g Group) bool {
	if s.phase != phaseGroup || s.group != g {
		return s.violation("end group " + g.String())
	}
	s.phase = phaseFrame
	return true
}

// datum admits a labelled data point inside any group but the core table.
func (s *tracker) datum(d Datum) bool {
	if d < 0 || d >= datumCount {
		s.fail(fmt.Errorf("%w: unknown datum %d", ErrState, int(d)))
		return false
	}
	if s.phase != phaseGroup || s.group == GroupCores {
		return s.violation("datum " + d.String())
	}
	return true
}

func (s *tracker) core() bool {
	if s.phase != phaseGroup || s.group != GroupCores {
		return s.violation("core row")
	}
	return true
}

func (s *tracker) cleanup() bool {
	if s.phase != phaseIdle {
		return s.violation("cleanup")
	}
	s.phase = phaseClosed
	return true
}
