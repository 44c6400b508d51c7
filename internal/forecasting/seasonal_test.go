package forecasting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast_EmptySeries(t *testing.T) {
	_, _, err := NewForecaster(0, 1).Forecast(nil, 5)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestForecast_PeriodsLimit(t *testing.T) {
	f := NewForecaster(0, 1)

	_, _, err := f.Forecast([]float64{0.5}, 1<<62)
	assert.ErrorIs(t, err, ErrPeriodsOutOfRange)

	_, _, err = f.Forecast([]float64{0.5}, DefaultMaxPeriods+1)
	assert.ErrorIs(t, err, ErrPeriodsOutOfRange)

	points, _, err := f.Forecast([]float64{0.5}, DefaultMaxPeriods)
	require.NoError(t, err)
	assert.Len(t, points, DefaultMaxPeriods)

	f.MaxPeriods = 3
	_, _, err = f.Forecast([]float64{0.5}, 4)
	assert.ErrorIs(t, err, ErrPeriodsOutOfRange)
}

func TestForecast_SimpleAverageForShortSeries(t *testing.T) {
	points, method, err := NewForecaster(0, 1).Forecast([]float64{0.8, 0.9, 1.0}, 4)
	require.NoError(t, err)
	assert.Equal(t, MethodSimpleAverage, method)
	require.Len(t, points, 4)
	for _, p := range points {
		assert.InDelta(t, 0.9, p, 1e-9)
	}
}

func TestForecast_SeasonalFlatSeriesIsStable(t *testing.T) {
	series := make([]float64, 28)
	for i := range series {
		series[i] = 0.8
	}

	points, method, err := NewForecaster(0, 1).Forecast(series, 10)
	require.NoError(t, err)
	assert.Equal(t, MethodSeasonalTrend, method)
	require.Len(t, points, 10)

	// 平稳序列：因子全为 1，无趋势；平滑只影响两端
	assert.InDelta(t, 0.6, points[0], 1e-9)
	for _, p := range points[1:9] {
		assert.InDelta(t, 0.8, p, 1e-9)
	}
	assert.InDelta(t, 0.6, points[9], 1e-9)
}

func TestForecast_OutputClippedToUnitRange(t *testing.T) {
	series := make([]float64, 35)
	for i := range series {
		if i%7 == 0 {
			series[i] = 0
		} else {
			series[i] = 1
		}
	}

	points, _, err := NewForecaster(0.5, 42).Forecast(series, 30)
	require.NoError(t, err)
	for _, p := range points {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestWeeklyFactors(t *testing.T) {
	series := []float64{1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 0}
	factors := WeeklyFactors(series)
	assert.InDelta(t, 7.0/6.0, factors[0], 1e-9)
	assert.InDelta(t, 0.0, factors[6], 1e-9)

	zero := WeeklyFactors(make([]float64, 14))
	for _, f := range zero {
		assert.Equal(t, 1.0, f)
	}
}

func TestRecentTrend(t *testing.T) {
	series := make([]float64, 28)
	for i := 14; i < 28; i++ {
		series[i] = 1
	}
	assert.InDelta(t, 1.0, RecentTrend(series), 1e-9)
	assert.Equal(t, 0.0, RecentTrend(series[:20]))
}

func TestSmooth(t *testing.T) {
	assert.Equal(t, []float64{0.5, 1, 0.5}, Smooth([]float64{0, 2, 0}))
	assert.Equal(t, []float64{0.75, 1, 0.75}, Smooth([]float64{1, 1, 1}))
}
