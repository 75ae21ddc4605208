package models

// Requests for analysis HTTP endpoints.

type RunAnalysisRequest struct {
	Path   string                 `json:"path" validate:"required"`
	Params map[string]interface{} `json:"params"`
}

type ProbeRequest struct {
	Path   string `query:"path" json:"path" validate:"required"`
	Sample int    `query:"sample" json:"sample" default:"5" validate:"gte=1,lte=5"`
}
