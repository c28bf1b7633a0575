package coorbital

import "errors"

var (
	// ErrInfeasibleGeometry is returned when the p-iteration reaches a negative semi-major axis
	// or semi-latus rectum: no prograde elliptical arc joins both positions in the requested time.
	ErrInfeasibleGeometry = errors.New("infeasible transfer geometry")
	// ErrNonConvergence is returned when the p-iteration exhausts its iterations.
	ErrNonConvergence = errors.New("transfer did not converge")
	// ErrNoFeasibleCandidate is returned when no candidate epoch of the search produced a transfer.
	ErrNoFeasibleCandidate = errors.New("no feasible rendezvous candidate")
	// ErrDegenerateInput flags a precondition violation (zero vectors, collinear positions, non-positive time).
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrInvalidPropulsion flags propulsion parameters which cannot produce a burn duration.
	ErrInvalidPropulsion = errors.New("invalid propulsion parameters")
)
