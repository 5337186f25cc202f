package collector

import (
	"context"

	"github.com/th3rrry/minees/internal/model"
)

// Mock returns controllable fixed data for development and testing.
type Mock struct {
	Price     float64
	Change24h float64
	Series    *model.PriceSeries
	Err       error
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) FetchQuote(_ context.Context, inst model.Instrument) (*model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Quote{
		Instrument: inst.ID,
		Price:      m.Price,
		Change24h:  m.Change24h,
		High24h:    m.Price * 1.005,
		Low24h:     m.Price * 0.995,
		Source:     m.Name(),
	}, nil
}

func (m *Mock) FetchHistory(_ context.Context, _ model.Instrument, limit int) (*model.PriceSeries, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Series != nil {
		return tail(m.Series, limit), nil
	}
	return generateMockSeries(m.Price, limit), nil
}

// generateMockSeries ramps gently through basePrice.
func generateMockSeries(basePrice float64, count int) *model.PriceSeries {
	s := &model.PriceSeries{
		Closes:  make([]float64, count),
		Highs:   make([]float64, count),
		Lows:    make([]float64, count),
		Volumes: make([]float64, count),
	}
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		s.Closes[i] = p
		s.Highs[i] = p * 1.005
		s.Lows[i] = p * 0.995
		s.Volumes[i] = 1_000_000
	}
	return s
}
