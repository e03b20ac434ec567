/*
 * options.go, part of persistence.
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

package analysis

import (
	"os"

	persistence "github.com/rmera/persistence"
	"github.com/rmera/persistence/autocorr"
	"github.com/rmera/persistence/decay"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Options contains the options for an Analysis.
type Options struct {
	begin       int
	skip        int
	end         int //exclusive, 0 means until the end of the data.
	workers     int
	method      autocorr.Method
	c0Tolerance float64
	fit         *decay.Options
	logger      logrus.FieldLogger //not saved to files
}

// DefaultOptions returns options to use every frame with one goroutine,
// the direct correlation method and the default fit options.
func DefaultOptions() *Options {
	r := new(Options)
	r.workers = 1
	r.method = autocorr.Direct
	r.c0Tolerance = autocorr.DefaultC0Tolerance
	r.fit = decay.DefaultOptions()
	return r
}

// Returns the index of the first frame to use, and sets it to a new value, if given.
func (O *Options) Begin(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.begin = n[0]
	}
	return O.begin
}

// Returns the number of frames skipped between reads,
// and sets it to a new value, if given.
func (O *Options) Skip(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.skip = n[0]
	}
	return O.skip
}

// Returns the index of the frame where reading stops (that frame
// is not used), and sets it to a new value, if given. 0 means all frames.
func (O *Options) End(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.end = n[0]
	}
	return O.end
}

// Returns the number of goroutines used to process the chains of
// each frame, and sets it to a new value, if given.
func (O *Options) Workers(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.workers = n[0]
	}
	if O.workers < 1 {
		return 1
	}
	return O.workers
}

// Returns the correlation method, and sets it to a new value, if given.
func (O *Options) Method(m ...autocorr.Method) autocorr.Method {
	if len(m) > 0 {
		O.method = m[0]
	}
	return O.method
}

// Returns the tolerance for the deviation of C(0) from 1, and sets it
// to a new value, if given.
func (O *Options) C0Tolerance(t ...float64) float64 {
	if len(t) > 0 && t[0] > 0 {
		O.c0Tolerance = t[0]
	}
	return O.c0Tolerance
}

// Returns the options for the decay fit, and sets them, if given.
func (O *Options) FitOptions(o ...*decay.Options) *decay.Options {
	if len(o) > 0 && o[0] != nil {
		O.fit = o[0]
	}
	if O.fit == nil {
		O.fit = decay.DefaultOptions()
	}
	return O.fit
}

// Returns the logger for the analysis, and sets it, if given. By
// default, the standard logrus logger is used.
func (O *Options) Logger(l ...logrus.FieldLogger) logrus.FieldLogger {
	if len(l) > 0 && l[0] != nil {
		O.logger = l[0]
	}
	if O.logger == nil {
		return logrus.StandardLogger()
	}
	return O.logger
}

type optionsYAML struct {
	Begin       int             `yaml:"begin"`
	Skip        int             `yaml:"skip"`
	End         int             `yaml:"end"`
	Workers     int             `yaml:"workers"`
	Method      autocorr.Method `yaml:"method"`
	C0Tolerance float64         `yaml:"c0_tolerance"`
	Fit         decay.Options   `yaml:"fit"`
}

func (O *Options) MarshalYAML() (any, error) {
	return optionsYAML{
		Begin:       O.begin,
		Skip:        O.skip,
		End:         O.end,
		Workers:     O.Workers(),
		Method:      O.method,
		C0Tolerance: O.c0Tolerance,
		Fit:         *O.FitOptions(),
	}, nil
}

// UnmarshalYAML sets the options present in value. The ones absent keep their values.
func (O *Options) UnmarshalYAML(value *yaml.Node) error {
	const caller = "analysis.Options.UnmarshalYAML"
	y := optionsYAML{
		Begin:       O.begin,
		Skip:        O.skip,
		End:         O.end,
		Workers:     O.workers,
		Method:      O.method,
		C0Tolerance: O.c0Tolerance,
		Fit:         *O.FitOptions(),
	}
	if err := value.Decode(&y); err != nil {
		return persistence.NewError(persistence.ErrInput, err.Error(), true, caller)
	}
	if y.Begin < 0 || y.Skip < 0 || y.End < 0 || y.Workers < 0 || y.C0Tolerance < 0 {
		return persistence.NewError(persistence.ErrInput, "negative values are not allowed", true, caller)
	}
	O.begin = y.Begin
	O.skip = y.Skip
	O.end = y.End
	O.workers = y.Workers
	O.method = y.Method
	O.c0Tolerance = y.C0Tolerance
	fit := y.Fit
	O.fit = &fit
	return nil
}

// LoadOptions reads options from a YAML file. Options not in the file
// take their default values.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o := DefaultOptions()
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, persistence.DecorateError(err, "analysis.LoadOptions")
	}
	return o, nil
}

// SaveOptions writes o to a YAML file. The logger is not saved.
func SaveOptions(path string, o *Options) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
