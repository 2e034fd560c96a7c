package monthly

import "context"

// StockDrifts returns the inputs whose current stock differs from the closing
// stock of their latest registry.
func (s *Service) StockDrifts(ctx context.Context) ([]StockDrift, error) {
	rows, err := s.repo.LatestClosingStocks(ctx)
	if err != nil {
		return nil, err
	}
	var drifts []StockDrift
	for _, row := range rows {
		row.Difference = row.CurrentStock.Sub(row.ClosingStock)
		if !row.Difference.IsZero() {
			drifts = append(drifts, row)
		}
	}
	return drifts, nil
}
