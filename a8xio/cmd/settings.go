package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sarchlab/a8xio/hostbus/aperture"
	"github.com/spf13/pflag"
)

// Environment variables that provide defaults for the run flags.
const (
	envFreqMHz     = "A8XIO_FREQ_MHZ"
	envApertures   = "A8XIO_APERTURES"
	envTickBudget  = "A8XIO_TICK_BUDGET"
	envMonitorPort = "A8XIO_MONITOR_PORT"
)

const defaultFreqMHz = 100

// settings are the run parameters after flags, environment and scenario are
// merged, in that order of precedence.
type settings struct {
	FreqMHz      float64
	NumApertures int
	TickBudget   uint64
	MonitorPort  int
}

func resolveSettings(flags *pflag.FlagSet, s scenario) (settings, error) {
	r := settings{
		FreqMHz:      defaultFreqMHz,
		NumApertures: aperture.DefaultNumApertures,
	}

	if s.FreqMHz > 0 {
		r.FreqMHz = s.FreqMHz
	}

	if s.NumApertures > 0 {
		r.NumApertures = s.NumApertures
	}

	r.TickBudget = s.TickBudget

	var err error

	if r.FreqMHz, err = pickFloat(flags, "freq-mhz", envFreqMHz, r.FreqMHz); err != nil {
		return r, err
	}

	if r.NumApertures, err = pickInt(flags, "apertures", envApertures, r.NumApertures); err != nil {
		return r, err
	}

	budget, err := pickInt(flags, "tick-budget", envTickBudget, int(r.TickBudget))
	if err != nil {
		return r, err
	}
	r.TickBudget = uint64(budget)

	if r.MonitorPort, err = pickInt(flags, "monitor-port", envMonitorPort, 0); err != nil {
		return r, err
	}

	if r.FreqMHz <= 0 {
		return r, fmt.Errorf("frequency must be positive, got %g MHz", r.FreqMHz)
	}

	if budget < 0 {
		return r, fmt.Errorf("tick budget must not be negative")
	}

	return r, nil
}

func pickFloat(
	flags *pflag.FlagSet,
	flag, env string,
	fallback float64,
) (float64, error) {
	if flags.Changed(flag) {
		return flags.GetFloat64(flag)
	}

	str, ok := os.LookupEnv(env)
	if !ok || str == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}

	return v, nil
}

func pickInt(
	flags *pflag.FlagSet,
	flag, env string,
	fallback int,
) (int, error) {
	if flags.Changed(flag) {
		return flags.GetInt(flag)
	}

	str, ok := os.LookupEnv(env)
	if !ok || str == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}

	return v, nil
}
