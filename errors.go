/*
 * errors.go, part of persistence.
 *
 *
 * Copyright 2024 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the packages of this module wraps one of
// these, so they can be checked with errors.Is.
var (
	// ErrInsufficientAtoms: a chain with fewer than 2 atoms, which forms no bond.
	ErrInsufficientAtoms = errors.New("persistence: chain has fewer than 2 atoms")

	// ErrDegenerateBond: a zero-length (or non-finite) bond vector.
	ErrDegenerateBond = errors.New("persistence: degenerate bond vector")

	// ErrNotReady: a result was requested before the stage producing it finished.
	ErrNotReady = errors.New("persistence: analysis not ready")

	// ErrAlreadyFinalized: accumulation was requested on a finished analysis.
	ErrAlreadyFinalized = errors.New("persistence: analysis already finalized")

	// ErrFitDidNotConverge: the decay fit failed.
	ErrFitDidNotConverge = errors.New("persistence: fit did not converge")

	// ErrNotEnoughLags: the correlation has too few lags for a fit.
	ErrNotEnoughLags = errors.New("persistence: not enough lags to fit")

	// ErrNoData: nothing was accumulated.
	ErrNoData = errors.New("persistence: no bonds accumulated")

	// ErrInvariant: a numerical invariant of the correlation function does not hold.
	ErrInvariant = errors.New("persistence: correlation invariant violated")

	// ErrInput: malformed input, such as frames of different sizes.
	ErrInput = errors.New("persistence: invalid input")

	// ErrCheckpoint: an accumulator checkpoint could not be written or read.
	ErrCheckpoint = errors.New("persistence: bad checkpoint")
)

// Error is the error type of this module. It carries the kind of error (one of the
// Err* values of this package, available through Unwrap), a message, the trail of
// functions it went through (see Decorate) and whether it is critical.
type Error struct {
	kind     error
	message  string
	deco     []string
	critical bool
}

// NewError returns a new *Error of the given kind. deco, if given, starts the decoration trail.
func NewError(kind error, message string, critical bool, deco ...string) *Error {
	return &Error{kind: kind, message: message, critical: critical, deco: append([]string(nil), deco...)}
}

// Errorf is NewError with a formatted, non-critical message.
func Errorf(kind error, caller string, format string, a ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, a...), false, caller)
}

func (err *Error) Error() string {
	msg := err.kind.Error()
	if err.message != "" {
		msg += ": " + err.message
	}
	return msg
}

// Trail returns the functions the error went through, innermost first, as a string.
func (err *Error) Trail() string {
	return strings.Join(err.deco, " < ")
}

// Unwrap returns the kind of the error.
func (err *Error) Unwrap() error { return err.kind }

// Decorate adds dec to the decoration trail of the error, unless it is empty,
// and returns the trail.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true if the error should stop the whole calculation.
func (err *Error) Critical() bool { return err.critical }

// SetCritical sets the critical flag of the error and returns it, for chaining.
func (err *Error) SetCritical(c bool) *Error {
	err.critical = c
	return err
}

// DecorateError adds caller to the decoration trail of err if err is an *Error
// (or wraps one), and returns err.
func DecorateError(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// CopyError returns a copy of err, with its own decoration trail, if err is an
// *Error. Otherwise it returns err. Stored errors are copied before being
// returned, so decorating the returned error does not change the stored one.
func CopyError(err error) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	c := *e
	c.deco = append([]string(nil), e.deco...)
	return &c
}

// LastFrameError is implemented by the error that a FrameSource or Traj returns
// when the data ends normally.
type LastFrameError interface {
	error
	NormalLastFrameTermination() //does nothing, just to separate this interface from other errors
}

type lastFrameError struct {
	deco []string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// NewLastFrameError returns an error signaling the normal end of a trajectory.
func NewLastFrameError(caller string) error {
	return &lastFrameError{deco: []string{caller}}
}

// IsLastFrame returns true if err (or an error it wraps) is a LastFrameError.
func IsLastFrame(err error) bool {
	var l LastFrameError
	return errors.As(err, &l)
}
