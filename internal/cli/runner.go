package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/matchup/internal/adapters/predictor"
	service "github.com/okian/matchup/internal/app"
	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
)

// Run executes one invocation and writes its result to out. A failed
// prediction is returned as the error.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return RunWith(ctx, cfg, predictor.NewClient(predictor.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}), out)
}

// RunWith is Run against an explicit backend.
func RunWith(ctx context.Context, cfg *Config, p service.Predictor, out io.Writer) error {
	log := logger.Get().Named("cli")

	svc := service.New(
		service.WithPredictor(p),
		service.WithWorkerCount(1),
		service.WithQueueSize(1),
		service.WithMaxSessions(1),
		service.WithPredictTimeout(cfg.Timeout),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if cfg.List {
		teams, err := svc.Teams(ctx)
		if err != nil {
			return err
		}
		return printTeams(out, teams, cfg.JSON)
	}

	log.Debug(ctx, "predicting", logger.String("home", cfg.Home), logger.String("away", cfg.Away))
	res := svc.PredictMatchup(ctx, cfg.Home, cfg.Away)
	if !res.OK() {
		return res.Err
	}
	return printPrediction(out, res.Prediction, cfg.JSON)
}

func printTeams(out io.Writer, teams []model.Team, asJSON bool) error {
	if asJSON {
		if teams == nil {
			teams = []model.Team{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"teams": teams})
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSHORT")
	for _, t := range teams {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.ShortName)
	}
	return tw.Flush()
}

func printPrediction(out io.Writer, p model.Prediction, asJSON bool) error {
	if asJSON {
		_, err := fmt.Fprintln(out, p.Pretty())
		return err
	}
	_, err := fmt.Fprintf(out, "%s vs %s\nPrediction: %s\n", p.HomeTeam(), p.AwayTeam(), p.Outcome())
	return err
}
