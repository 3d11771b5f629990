package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUsage reports flags that do not describe a runnable command.
var ErrUsage = errors.New("invalid usage")

// Config holds one CLI invocation.
type Config struct {
	BaseURL string        // prediction backend
	Home    string        // home team name
	Away    string        // away team name
	List    bool          // print the roster instead of predicting
	JSON    bool          // print raw JSON
	Timeout time.Duration // per backend call
	Verbose bool          // debug logging on stderr
}

// Validate checks that either -list or both teams are given.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: -url must not be empty", ErrUsage)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: -timeout must be positive", ErrUsage)
	}
	if c.List {
		return nil
	}
	if strings.TrimSpace(c.Home) == "" || strings.TrimSpace(c.Away) == "" {
		return fmt.Errorf("%w: -home and -away are required unless -list is set", ErrUsage)
	}
	return nil
}
