package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/matchup/internal/cli"
)

// Default configuration constants.
const (
	defaultBaseURL = "http://localhost:5000"
	defaultTimeout = 10 * time.Second
)

func main() {
	var (
		baseURL = flag.String("url", defaultBaseURL, "Base URL of the prediction backend")
		home    = flag.String("home", "", "Home team name")
		away    = flag.String("away", "", "Away team name")
		list    = flag.Bool("list", false, "Print the roster and exit")
		asJSON  = flag.Bool("json", false, "Print raw JSON")
		timeout = flag.Duration("timeout", defaultTimeout, "Backend request timeout")
		verbose = flag.Bool("verbose", false, "Enable debug logging on stderr")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cli.ShowHelp(os.Stdout)
		return
	}

	if err := cli.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &cli.Config{
		BaseURL: *baseURL,
		Home:    *home,
		Away:    *away,
		List:    *list,
		JSON:    *asJSON,
		Timeout: *timeout,
		Verbose: *verbose,
	}
	if err := cli.Run(ctx, cfg, os.Stdout); err != nil {
		os.Stderr.WriteString("matchup: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
