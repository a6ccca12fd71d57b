package camera

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

type OptSetter func(key string, val interface{}) error

// Setopt applies key/value args to the matching setters. Unknown keys are
// rejected so a typo in configuration fails at start-up.
func Setopt(setters map[string]OptSetter) func(args ...interface{}) error {
	return func(args ...interface{}) error {
		if len(args)%2 != 0 {
			return fmt.Errorf("odd number of source options: %d", len(args))
		}

		for i := 0; i < len(args); i += 2 {
			key, err := cast.ToStringE(args[i])
			if err != nil {
				return fmt.Errorf("source option key at %d: %w", i, err)
			}

			set, ok := setters[key]
			if !ok {
				return fmt.Errorf("unknown source option %q", key)
			}

			if err := set(key, args[i+1]); err != nil {
				return err
			}
		}

		return nil
	}
}

func ToString(dst *string) OptSetter {
	return func(key string, val interface{}) error {
		s, err := cast.ToStringE(val)
		if err != nil {
			return fmt.Errorf("source option %s: %w", key, err)
		}
		*dst = s
		return nil
	}
}

func ToInt(dst *int) OptSetter {
	return func(key string, val interface{}) error {
		n, err := cast.ToIntE(val)
		if err != nil {
			return fmt.Errorf("source option %s: %w", key, err)
		}
		*dst = n
		return nil
	}
}

func ToDuration(dst *time.Duration) OptSetter {
	return func(key string, val interface{}) error {
		d, err := cast.ToDurationE(val)
		if err != nil {
			return fmt.Errorf("source option %s: %w", key, err)
		}
		*dst = d
		return nil
	}
}

func ToLogger(dst *logrus.FieldLogger) OptSetter {
	return func(key string, val interface{}) error {
		logger, ok := val.(logrus.FieldLogger)
		if !ok {
			return fmt.Errorf("source option %s: %T is not a logger", key, val)
		}
		*dst = logger
		return nil
	}
}

func DefaultLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
