package models

import "time"

// RiskRecord is the parametric VaR/ES of one symbol.
type RiskRecord struct {
	Symbol string
	VaR    float64
	ES     float64
}

// RegressionRecord is the single-factor fit of one symbol against the market.
type RegressionRecord struct {
	Symbol           string
	Alpha            float64
	Beta             float64
	ResidualVariance float64
	Clamped          bool
}

// AlignmentDiagnostics describes how the wide return table was aligned.
type AlignmentDiagnostics struct {
	RequestedMarket string
	MarketSymbol    string
	MarketFallback  bool
	Columns         []string
	DatesTotal      int
	AlignedDates    int
	Clamped         []string
}

// SummaryRecord joins risk and regression output for one symbol.
type SummaryRecord struct {
	Symbol      string  `json:"Symbol"`
	Beta        float64 `json:"Beta"`
	VaR         float64 `json:"VaR"`
	ES          float64 `json:"ES"`
	ResidualVar float64 `json:"ResidualVar"`
}

// SchemaField names one summary column and its JSON kind.
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SummarySchema lists the summary columns in order.
type SummarySchema struct {
	Fields []SchemaField `json:"fields"`
}

// Summary is the packaged comparative table.
type Summary struct {
	Data   []SummaryRecord `json:"data"`
	Schema SummarySchema   `json:"schema"`
}

// Series is a parallel (symbol, value) sequence for charting.
type Series struct {
	X []string  `json:"x"`
	Y []float64 `json:"y"`
}

// Diagnostics is informational output attached to a successful result.
type Diagnostics struct {
	MarketSymbol   string   `json:"market_symbol"`
	MarketFallback bool     `json:"market_fallback"`
	AlignedDates   int      `json:"aligned_dates"`
	RowsRead       int      `json:"rows_read"`
	RowsRejected   int      `json:"rows_rejected"`
	Symbols        int      `json:"symbols"`
	Clamped        []string `json:"clamped"`
}

// AnalysisResult is the terminal output of a pipeline run.
// A non-empty Error means failure regardless of the other fields.
type AnalysisResult struct {
	Summary     Summary     `json:"summary"`
	VaRSeries   Series      `json:"var_series"`
	BetaSeries  Series      `json:"beta_series"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Error       string      `json:"error,omitempty"`
}

// Failed reports whether the result carries an error.
func (r AnalysisResult) Failed() bool { return r.Error != "" }

// NewEmptyResult returns a result whose sequences are empty, not nil.
func NewEmptyResult() AnalysisResult {
	return AnalysisResult{
		Summary: Summary{
			Data:   []SummaryRecord{},
			Schema: SummarySchema{Fields: []SchemaField{}},
		},
		VaRSeries:   Series{X: []string{}, Y: []float64{}},
		BetaSeries:  Series{X: []string{}, Y: []float64{}},
		Diagnostics: Diagnostics{Clamped: []string{}},
	}
}

// NewErrorResult returns the failure shape with err as the message.
func NewErrorResult(msg string) AnalysisResult {
	r := NewEmptyResult()
	r.Error = msg
	return r
}

// SummaryFields is the schema of a populated summary.
func SummaryFields() []SchemaField {
	return []SchemaField{
		{Name: "Symbol", Type: "string"},
		{Name: "Beta", Type: "number"},
		{Name: "VaR", Type: "number"},
		{Name: "ES", Type: "number"},
		{Name: "ResidualVar", Type: "number"},
	}
}

// DateRange is a min/max pair rendered as YYYY-MM-DD.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// DataProbe reports the outcome of a load-and-clean dry run.
type DataProbe struct {
	Success    bool                     `json:"success"`
	Shape      []int                    `json:"shape,omitempty"`
	Columns    []string                 `json:"columns,omitempty"`
	Dtypes     map[string]string        `json:"dtypes,omitempty"`
	SampleData []map[string]interface{} `json:"sample_data,omitempty"`
	DateRange  *DateRange               `json:"date_range,omitempty"`
	RowsRead   int                      `json:"rows_read"`
	Rejected   int                      `json:"rows_rejected"`
	Symbols    []string                 `json:"symbols,omitempty"`
	Error      string                   `json:"error,omitempty"`
	CheckedAt  time.Time                `json:"checked_at"`
}
