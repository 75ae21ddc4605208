package models

// Parameter keys understood by the pipeline.
const (
	ParamLambda = "lambda"
	ParamLevel  = "level"
)

// Params is the numeric-only option set passed to the pipeline.
type Params map[string]float64

// Lambda returns the reserved shrinkage coefficient, zero when unset.
func (p Params) Lambda() float64 {
	return p[ParamLambda]
}

// Level returns the confidence level override when it lies in (0, 1).
func (p Params) Level(def float64) float64 {
	if v, ok := p[ParamLevel]; ok && v > 0 && v < 1 {
		return v
	}
	return def
}
