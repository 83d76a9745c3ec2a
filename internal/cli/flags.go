package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
)

// ParseDurationFlag parses a duration flag value. Returns zero duration if
// the flag is empty.
func ParseDurationFlag(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("--%s '%s' doesn't look like a valid duration", name, value),
			"Try something like 30s, 5m, or 500ms.")
	}
	if d <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("--%s must be positive (got %s)", name, value),
			"Try something like 30s or 5m.")
	}
	return d, nil
}
