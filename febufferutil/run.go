/*
Copyright © 2026 the FeBuffer authors.
This file is part of FeBuffer.

FeBuffer is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FeBuffer is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FeBuffer.  If not, see <http://www.gnu.org/licenses/>.
*/

package febufferutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/febuffer"
	"github.com/spf13/cobra"
)

// Calc runs the buffering model and presents the results with each of
// the sinks in turn. Each calculation is logged with its own run id.
func Calc(log logrus.FieldLogger, in febuffer.Inputs, c febuffer.Constants, sinks ...Sink) (*febuffer.Outputs, error) {
	startTime := time.Now()
	log = log.WithField("run", xid.New().String())
	log.WithFields(logrus.Fields{
		"CellDiameter":   in.CellDiameter,
		"FreeEDTA":       in.FreeEDTA,
		"ChelatedFe":     in.ChelatedFe,
		"LightIntensity": in.LightIntensity,
		"HoursOfLight":   in.HoursOfLight,
	}).Info("calculating iron buffering capacity")

	o, err := febuffer.Calculate(in, c)
	if err != nil {
		log.WithError(err).Error("calculation failed")
		return nil, fmt.Errorf("febuffer: calculation failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"AmbientFreeIron":    o.AmbientFreeIron,
		"FailureCellDensity": o.FailureCellDensity,
		"FailureBiomass":     o.FailureBiomass,
	}).Debug("calculation finished")

	for _, s := range sinks {
		if err := s.Present(o); err != nil {
			return o, err
		}
	}
	log.WithField("time", time.Since(startTime)).Info("done")
	return o, nil
}

// newLogger returns a logger that writes to w and, if logFile is not
// empty, to logFile as well. The returned function closes the log file.
func newLogger(w io.Writer, logFile string) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	log.Level = logrus.InfoLevel
	log.Out = w
	if logFile == "" {
		return log, func() error { return nil }, nil
	}
	f, err := os.Create(os.ExpandEnv(logFile))
	if err != nil {
		return nil, nil, fmt.Errorf("febuffer: problem creating log file: %w", err)
	}
	log.Out = io.MultiWriter(w, f)
	return log, f.Close, nil
}

// session holds the configuration shared by the calculation commands.
type session struct {
	log       *logrus.Logger
	closeLog  func() error
	inputs    febuffer.Inputs
	constants febuffer.Constants
	outputter *febuffer.Outputter
}

// newSession reads the model configuration from cfg and sets up
// logging to the output of cmd.
func newSession(cmd *cobra.Command, cfg *viper.Viper) (*session, error) {
	in, err := InputsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c, err := ConstantsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, err
	}
	o, err := febuffer.NewOutputter(checkOutputVars(vars), nil)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := newLogger(cmd.OutOrStderr(), cfg.GetString("LogFile"))
	if err != nil {
		return nil, err
	}
	return &session{
		log:       log,
		closeLog:  closeLog,
		inputs:    in,
		constants: c,
		outputter: o,
	}, nil
}

// report returns a text report sink that writes to the output of cmd.
func (s *session) report(cmd *cobra.Command) *Report {
	return &Report{W: cmd.OutOrStdout(), Outputter: s.outputter, Log: s.log}
}

// Close closes the log file, if there is one.
func (s *session) Close() error { return s.closeLog() }
