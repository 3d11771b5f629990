package predictor

import "time"

const (
	defaultBaseURL     = "http://localhost:5000"
	defaultHTTPTimeout = 10 * time.Second
	defaultUserAgent   = "matchup-form/1.0"

	teamsPath   = "/api/teams"
	predictPath = "/api/predict"

	// errorBodyLimit caps how much of a failed response is kept in StatusError.
	errorBodyLimit = 512
	// maxBodyBytes caps successful response bodies.
	maxBodyBytes = 1 << 20
)

// Endpoint labels used in errors and metrics.
const (
	EndpointTeams   = "teams"
	EndpointPredict = "predict"
)
