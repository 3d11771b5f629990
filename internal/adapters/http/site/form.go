package site

import (
	"strconv"

	"github.com/okian/matchup/internal/domain/matchup"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.865 generate

const title = "Tactical Matchup Predictor"

// page is everything the form template needs for one render.
type page struct {
	View  matchup.View
	Flash string
	Key   string // idempotency key carried by the predict form
}

// seqLabel is used in the flash for stale responses.
func seqLabel(seq uint64) string { return "#" + strconv.FormatUint(seq, 10) }
