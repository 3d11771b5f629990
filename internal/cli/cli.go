// Package cli runs the matchup form workflow from the command line.
package cli

import (
	"io"
	"os"

	"github.com/okian/matchup/pkg/logger"
)

// SetupLogging sends structured logs to stderr so stdout stays parseable.
func SetupLogging(verbose bool) error {
	if err := logger.InitWithOptions(logger.Options{Writer: os.Stderr, Service: "matchup-cli"}); err != nil {
		return err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the matchup CLI.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Matchup Predictor CLI
=====================

Loads the team roster from the prediction backend, selects the two teams
and prints the backend's prediction.

Usage:
  matchup [options]

Options:
  -url string
        Base URL of the prediction backend (default "http://localhost:5000")
  -home string
        Home team name
  -away string
        Away team name, different from the home team
  -list
        Print the roster and exit
  -json
        Print raw JSON
  -timeout duration
        Backend request timeout (default 10s)
  -verbose
        Enable debug logging on stderr
  -help
        Show this help message

Examples:
  # List teams
  matchup -list

  # Predict a matchup against a remote backend
  matchup -url http://predictor:5000 -home Arsenal -away Chelsea
`)
}
