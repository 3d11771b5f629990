package matchup

import model "github.com/okian/matchup/internal/domain/model"

// PredictResult is the outcome of one predict operation. Exactly one of
// Prediction and Err is meaningful: Err is nil on success.
type PredictResult struct {
	Seq        uint64
	Prediction model.Prediction
	Err        error
}

// Ok builds a successful result.
func Ok(seq uint64, p model.Prediction) PredictResult {
	return PredictResult{Seq: seq, Prediction: p}
}

// Fail builds a failed result.
func Fail(seq uint64, err error) PredictResult {
	return PredictResult{Seq: seq, Err: err}
}

// OK reports whether the predict succeeded.
func (r PredictResult) OK() bool { return r.Err == nil }
