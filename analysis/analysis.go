/*
 * analysis.go, part of persistence.
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

/*
Package analysis obtains the persistence length of a set of polymer chains
along a trajectory.

An Analysis goes through the states

	Created -> Accumulating -> Accumulated -> Fitted

Run reads the frames, extracting the bonds of every chain and accumulating
the bond autocorrelation function. When the frames end (or the run is
canceled), the correlation function is finalized. Fit then fits it to an
exponential decay to obtain l_P.

A chain that can't be processed in a frame (too few atoms, coincident atoms)
is skipped for that frame only, and reported as a warning.

An Analysis is not safe for concurrent use.
*/
package analysis

import (
	"context"
	"fmt"
	"io"

	multierror "github.com/hashicorp/go-multierror"
	persistence "github.com/rmera/persistence"
	"github.com/rmera/persistence/autocorr"
	"github.com/rmera/persistence/bonds"
	"github.com/rmera/persistence/decay"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State is the stage an Analysis is in.
type State int

const (
	Created State = iota
	Accumulating
	Accumulated
	Fitted
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Accumulating:
		return "accumulating"
	case Accumulated:
		return "accumulated"
	case Fitted:
		return "fitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result contains the correlation function and, once fitted, the fit.
type Result struct {
	corr *autocorr.Correlation
	fit  *decay.Fit
}

// Correlation returns the bond autocorrelation function.
func (R *Result) Correlation() *autocorr.Correlation { return R.corr }

// Fit returns the fit of the correlation function, or nil if there is none yet.
func (R *Result) Fit() *decay.Fit { return R.fit }

// Analysis obtains a persistence length from a FrameSource.
type Analysis struct {
	o           *Options
	log         logrus.FieldLogger
	state       State
	acc         *autocorr.Accumulator
	corr        *autocorr.Correlation
	finalizeErr error
	fit         *decay.Fit
	warnings    *multierror.Error
}

// New returns an Analysis in the Created state. If o is nil, DefaultOptions are used.
func New(o *Options) *Analysis {
	if o == nil {
		o = DefaultOptions()
	}
	return &Analysis{
		o:   o,
		log: o.Logger(),
		acc: autocorr.New(o.Method()),
	}
}

// FromCheckpoints returns an Analysis, in the Accumulated state, with the
// merged accumulators read from the given checkpoints (see Checkpoint).
func FromCheckpoints(o *Options, checkpoints ...io.Reader) (*Analysis, error) {
	const caller = "analysis.FromCheckpoints"
	A := New(o)
	for i, r := range checkpoints {
		acc, err := autocorr.ReadCheckpoint(r)
		if err != nil {
			return nil, persistence.DecorateError(err, fmt.Sprintf("%s (checkpoint %d)", caller, i))
		}
		A.acc.Merge(acc)
	}
	A.state = Accumulating
	A.finalize()
	if A.finalizeErr != nil {
		return nil, persistence.DecorateError(persistence.CopyError(A.finalizeErr), caller)
	}
	return A, nil
}

// State returns the current state of the analysis.
func (A *Analysis) State() State { return A.state }

// Frames returns the number of frames accumulated.
func (A *Analysis) Frames() int { return A.acc.Frames() }

// Warnings returns the problems found with individual chains during
// accumulation, aggregated in one error, or nil if there were none.
func (A *Analysis) Warnings() error {
	return A.warnings.ErrorOrNil()
}

// Run reads frames from src until it signals its last frame, accumulating
// the correlation function, and then finalizes it. It can only be called once,
// later calls fail with persistence.ErrAlreadyFinalized.
// If ctx is canceled, or src fails, Run stops reading, finalizes what was
// accumulated from the complete frames read so far, and returns the error.
// Otherwise, it returns the error from the finalization, if any (for instance,
// persistence.ErrNoData if no chain could be used).
func (A *Analysis) Run(ctx context.Context, src persistence.FrameSource) error {
	const caller = "analysis.Run"
	if A.state != Created {
		return persistence.Errorf(persistence.ErrAlreadyFinalized, caller, "analysis is %s", A.state).SetCritical(true)
	}
	A.state = Accumulating
	A.log.WithFields(logrus.Fields{"begin": A.o.Begin(), "skip": A.o.Skip(), "end": A.o.End(), "workers": A.o.Workers(), "method": A.o.Method()}).Debug("Starting accumulation")
	runErr := A.accumulate(ctx, src)
	A.finalize()
	if runErr != nil {
		A.log.WithFields(logrus.Fields{"frames": A.acc.Frames(), "action": "accumulation stopped"}).Error(runErr)
		return runErr
	}
	if A.finalizeErr != nil {
		return persistence.DecorateError(persistence.CopyError(A.finalizeErr), caller)
	}
	return nil
}

func (A *Analysis) accumulate(ctx context.Context, src persistence.FrameSource) error {
	const caller = "analysis.accumulate"
	begin, skip, end := A.o.Begin(), A.o.Skip(), A.o.End()
	for read := 0; end <= 0 || read < end; read++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.Next()
		if err != nil {
			if persistence.IsLastFrame(err) {
				return nil
			}
			return persistence.DecorateError(err, caller)
		}
		if read < begin || (read-begin)%(skip+1) != 0 {
			continue
		}
		partial, err := A.processFrame(ctx, read, frame)
		if err != nil {
			return err
		}
		A.acc.Merge(partial)
		A.acc.MarkFrame()
	}
	return nil
}

// processFrame returns an accumulator with the contributions of all the usable
// chains of frame. With more than one worker, each chain is processed into its
// own accumulator, and they are merged in chain order. The only errors returned
// are context errors. Problems with chains are warnings.
func (A *Analysis) processFrame(ctx context.Context, index int, frame persistence.Frame) (*autocorr.Accumulator, error) {
	ids := frame.IDs()
	ret := autocorr.New(A.o.Method())
	if A.o.Workers() <= 1 {
		for _, id := range ids {
			b, err := bonds.Extract(frame[id])
			if err != nil {
				A.warn(index, id, err)
				continue
			}
			ret.AddChain(b)
		}
		return ret, nil
	}
	partials := make([]*autocorr.Accumulator, len(ids))
	errs := make([]error, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(A.o.Workers())
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := bonds.Extract(frame[id])
			if err != nil {
				errs[i] = err
				return nil
			}
			p := autocorr.New(A.o.Method())
			p.AddChain(b)
			partials[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		if errs[i] != nil {
			A.warn(index, id, errs[i])
			continue
		}
		ret.Merge(partials[i])
	}
	return ret, nil
}

func (A *Analysis) warn(frame int, chain string, err error) {
	A.log.WithFields(logrus.Fields{"frame": frame, "chain": chain, "action": "chain skipped"}).Warn(err)
	A.warnings = multierror.Append(A.warnings, fmt.Errorf("frame %d, chain %s: %w", frame, chain, err))
}

func (A *Analysis) finalize() {
	A.corr, A.finalizeErr = A.acc.Finalize(A.o.C0Tolerance())
	A.state = Accumulated
	if A.finalizeErr != nil {
		A.log.WithField("action", "finalize").Error(A.finalizeErr)
		return
	}
	A.log.WithFields(logrus.Fields{"frames": A.acc.Frames(), "chains": A.acc.Chains(), "lags": A.corr.Len(), "l_B": A.corr.BondLength()}).Info("Correlation function ready")
}

// Correlation returns the finalized correlation function. It fails with
// persistence.ErrNotReady before accumulation ends, and with the finalization
// error if the correlation could not be obtained.
func (A *Analysis) Correlation() (*autocorr.Correlation, error) {
	const caller = "analysis.Correlation"
	if A.state < Accumulated {
		return nil, persistence.Errorf(persistence.ErrNotReady, caller, "analysis is %s", A.state)
	}
	if A.corr == nil {
		return nil, persistence.DecorateError(persistence.CopyError(A.finalizeErr), caller)
	}
	return A.corr, nil
}

// Fit fits the correlation function with the fit options of the analysis.
// See FitWith.
func (A *Analysis) Fit() (*decay.Fit, error) {
	return A.FitWith(A.o.FitOptions())
}

// FitWith fits the correlation function with the given options, and moves the
// analysis to the Fitted state. Once fitted, it returns the stored fit,
// regardless of o. It fails with persistence.ErrNotReady before accumulation
// ends. If the fit fails, the analysis stays Accumulated, so the fit can be
// tried again with other options.
func (A *Analysis) FitWith(o *decay.Options) (*decay.Fit, error) {
	const caller = "analysis.FitWith"
	switch A.state {
	case Fitted:
		return A.fit, nil
	case Accumulated:
	default:
		return nil, persistence.Errorf(persistence.ErrNotReady, caller, "analysis is %s", A.state)
	}
	corr, err := A.Correlation()
	if err != nil {
		return nil, persistence.DecorateError(err, caller)
	}
	f, err := decay.FitDecay(corr, o)
	if err != nil {
		A.log.WithField("action", "fit").Warn(err)
		return nil, persistence.DecorateError(err, caller)
	}
	A.fit = f
	A.state = Fitted
	A.log.WithFields(logrus.Fields{"l_P": f.PersistenceLength(), "R2": f.RSquared(), "iterations": f.Iterations()}).Info("Fit done")
	return f, nil
}

// Result returns the correlation function and, if the analysis is Fitted, the fit.
func (A *Analysis) Result() (*Result, error) {
	corr, err := A.Correlation()
	if err != nil {
		return nil, persistence.DecorateError(err, "analysis.Result")
	}
	return &Result{corr: corr, fit: A.fit}, nil
}

// Checkpoint writes the accumulated data to w, to be merged with other
// checkpoints by FromCheckpoints. Only available once accumulation ended.
func (A *Analysis) Checkpoint(w io.Writer) error {
	const caller = "analysis.Checkpoint"
	if A.state < Accumulated {
		return persistence.Errorf(persistence.ErrNotReady, caller, "analysis is %s", A.state)
	}
	return persistence.DecorateError(A.acc.WriteCheckpoint(w), caller)
}
