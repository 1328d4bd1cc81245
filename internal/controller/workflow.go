// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import "errors"

// ErrBusy is returned by Workflow.Begin while an operation is already
// pending.
var ErrBusy = errors.New("operation already in progress")

// Phase is the observable state of a Workflow.
type Phase int

const (
	// PhaseIdle means no operation is pending.
	PhaseIdle Phase = iota
	// PhasePending means an operation started and has not finished.
	PhasePending
)

// Outcome records how the last completed operation ended.
type Outcome int

const (
	// OutcomeNone means nothing has completed yet.
	OutcomeNone Outcome = iota
	// OutcomeSuccess means the last operation completed normally.
	OutcomeSuccess
	// OutcomeFailure means the last operation ended with an error.
	OutcomeFailure
)

// Workflow serializes a single long-running operation: idle → pending →
// idle with an outcome. Begin refuses re-entry while pending, which is how
// the UI keeps inputs disabled during network calls without sprinkling
// boolean flags around.
//
// Workflow is not safe for concurrent use; it belongs to the UI goroutine.
type Workflow struct {
	phase   Phase
	outcome Outcome
	err     error
}

// Begin transitions idle → pending. It returns ErrBusy if an operation is
// already pending.
func (w *Workflow) Begin() error {
	if w.phase == PhasePending {
		return ErrBusy
	}
	w.phase = PhasePending
	w.outcome = OutcomeNone
	w.err = nil
	return nil
}

// Finish transitions pending → idle, recording the outcome. A nil error
// records success. Finishing an idle workflow is a no-op.
func (w *Workflow) Finish(err error) {
	if w.phase != PhasePending {
		return
	}
	w.phase = PhaseIdle
	if err != nil {
		w.outcome = OutcomeFailure
		w.err = err
		return
	}
	w.outcome = OutcomeSuccess
}

// Pending reports whether an operation is in flight.
func (w Workflow) Pending() bool { return w.phase == PhasePending }

// Outcome returns how the last completed operation ended.
func (w Workflow) Outcome() Outcome { return w.outcome }

// Err returns the failure from the last completed operation, if any.
func (w Workflow) Err() error { return w.err }
