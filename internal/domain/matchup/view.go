package matchup

import model "github.com/okian/matchup/internal/domain/model"

// View is a session's state plus the dropdown contents derived from it.
type View struct {
	ID string `json:"id"`
	State
	HomeOptions []model.Team `json:"homeOptions"`
	AwayOptions []model.Team `json:"awayOptions"`
	CanPredict  bool         `json:"canPredict"`
}

// NewView derives the view of state for session id.
func NewView(id string, s State) View {
	return View{
		ID:          id,
		State:       s,
		HomeOptions: HomeOptions(s),
		AwayOptions: AwayOptions(s),
		CanPredict:  CanPredict(s),
	}
}
