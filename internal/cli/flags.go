package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/meshmap/internal/errors"
)

// ParseTimeout parses a --timeout value into a duration.
// Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 30s, or 1m.")
	}
	if duration <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive (got %s)", flag),
			"Try something like 5s, 30s, or 1m.")
	}
	return duration, nil
}
