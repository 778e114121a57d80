package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExperiment(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExperiment() error {
	if c.Experiment.Rounds <= 0 {
		return errors.New("experiment.rounds must be positive")
	}
	if c.Experiment.CascadeSteps <= 0 {
		return errors.New("experiment.cascade_steps must be positive")
	}
	if c.Experiment.SetSizeFractional {
		if c.Experiment.TrainSetSize < 0 || c.Experiment.TrainSetSize > 1 {
			return errors.New("experiment.train_set_size must be between 0 and 1 when set_size_fractional is true")
		}
	} else if c.Experiment.TrainSetSize != float64(int64(c.Experiment.TrainSetSize)) {
		return errors.New("experiment.train_set_size must be a whole number when set_size_fractional is false")
	}
	switch c.Experiment.Metric {
	case "pcr", "nar":
	default:
		return fmt.Errorf("experiment.metric: unknown metric %q (expected pcr or nar)", c.Experiment.Metric)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
