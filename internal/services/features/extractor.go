package features

import (
	"StratLab/internal/domain/models"
	"StratLab/pkg/util"
)

// ComputeSimpleReturns computes r_t = (P_t - P_{t-1}) / P_{t-1} over one
// symbol's observations sorted by date. The first observation has no return
// and is omitted, as is every non-finite return.
func ComputeSimpleReturns(obs []models.PriceObservation) []models.ReturnObservation {
	if len(obs) < 2 {
		return nil
	}
	out := make([]models.ReturnObservation, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev := obs[i-1].Price
		cur := obs[i]
		r := (cur.Price - prev) / prev
		if !util.IsFinite(r) {
			continue
		}
		out = append(out, models.ReturnObservation{
			Date:   cur.Date,
			Symbol: cur.Symbol,
			Price:  cur.Price,
			Return: r,
		})
	}
	return out
}
