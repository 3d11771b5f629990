// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TeamID identifies a team on the prediction backend. The backend may send
// it as a JSON number or a string; either way it is kept as text.
type TeamID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *TeamID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TeamID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("team id must be a string or number: %w", err)
		}
		*id = TeamID(n.String())
		return nil
	}
}

// Team is one entry of the backend roster.
type Team struct {
	ID        TeamID `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// Ref returns the descriptor sent to the predictor for this team.
func (t Team) Ref() TeamRef {
	return TeamRef{Name: t.Name, ShortName: t.ShortName}
}

// TeamRef is the team descriptor the predict endpoint expects.
type TeamRef struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// Roster is the body of GET /api/teams.
type Roster struct {
	Teams []Team `json:"teams"`
}

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	HomeTeam TeamRef `json:"homeTeam"`
	AwayTeam TeamRef `json:"awayTeam"`
}

// FindTeam looks a team up by its display name.
func FindTeam(teams []Team, name string) (Team, bool) {
	for _, t := range teams {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

// TeamNames returns the names of teams in roster order.
func TeamNames(teams []Team) []string {
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.Name)
	}
	return names
}
