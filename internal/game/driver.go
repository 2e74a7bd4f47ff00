package game

import "fmt"

// SimParams are the simulation parameters supplied to the step engine.
type SimParams struct {
	DT           float64
	Deceleration float64
	Restitution  float64
	MaxSteps     int
}

// DefaultSimParams returns the parameters the reference table plays with.
func DefaultSimParams() SimParams {
	return SimParams{
		DT:           DefaultDT,
		Deceleration: DefaultDeceleration,
		Restitution:  DefaultRestitution,
		MaxSteps:     DefaultMaxSteps,
	}
}

// Validate rejects parameters the step engine cannot run with.
func (p SimParams) Validate() error {
	if p.DT <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfiguration, p.DT)
	}
	if p.Deceleration < 0 {
		return fmt.Errorf("%w: deceleration must not be negative, got %v", ErrInvalidConfiguration, p.Deceleration)
	}
	if p.Restitution < 0 || p.Restitution > 1 {
		return fmt.Errorf("%w: restitution must be in [0, 1], got %v", ErrInvalidConfiguration, p.Restitution)
	}
	if p.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", ErrInvalidConfiguration, p.MaxSteps)
	}
	return nil
}

// FrameFunc receives the match every few steps while discs are moving. It
// must not mutate the match.
type FrameFunc func(step int, m *Match)

// PlayTurn steps the match until every disc is at rest, then applies the rules
// exactly once. frameFn, if not nil, is called every `every` steps and once
// more when motion stops.
//
// If the discs are still moving after params.MaxSteps steps, PlayTurn returns
// ErrSimulationDidNotSettle and leaves the rules unapplied.
func PlayTurn(m *Match, params SimParams, every int, frameFn FrameFunc) (TurnResult, error) {
	if err := params.Validate(); err != nil {
		return TurnResult{}, err
	}
	if m.GameOver() {
		return TurnResult{}, ErrGameOver
	}
	if every <= 0 {
		every = DefaultFrameEvery
	}

	steps := 0
	for m.IsMoving() {
		if steps >= params.MaxSteps {
			return TurnResult{}, fmt.Errorf("%w: still moving after %d steps", ErrSimulationDidNotSettle, steps)
		}
		m.Step(params.DT, params.Deceleration, params.Restitution)
		steps++
		if frameFn != nil && steps%every == 0 {
			frameFn(steps, m)
		}
	}
	if frameFn != nil && steps%every != 0 {
		frameFn(steps, m)
	}
	return m.ApplyRules(), nil
}
