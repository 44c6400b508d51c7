// Package forecasting 本地的出勤率时间序列预测，用于 /forecast 端点。
// 小样本时用均值加噪声；样本足够时用周季节因子 + 阻尼趋势，再平滑并裁剪到 [0,1]。
package forecasting

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	MethodSimpleAverage = "simple_average"
	MethodSeasonalTrend = "seasonal_trend"

	weekLength       = 7
	minSeasonalLen   = 14
	trendWindow      = 14
	trendDamping     = 0.5
	seasonalBlend    = 0.3
	smallNoiseFactor = 1.25

	// DefaultMaxPeriods 单次请求允许的最大预测长度
	DefaultMaxPeriods = 365
)

var (
	ErrEmptySeries       = errors.New("no attendance data provided")
	ErrPeriodsOutOfRange = errors.New("periods out of range")
)

var smoothingKernel = [3]float64{0.25, 0.5, 0.25}

// Forecaster 并发安全；NoiseScale 为 0 时输出是确定的
type Forecaster struct {
	NoiseScale float64
	// MaxPeriods <= 0 表示不限制
	MaxPeriods int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewForecaster(noiseScale float64, seed uint64) *Forecaster {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Forecaster{
		NoiseScale: noiseScale,
		MaxPeriods: DefaultMaxPeriods,
		rng:        rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

func (f *Forecaster) normal(std float64) float64 {
	if std <= 0 {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.NormFloat64() * std
}

// Forecast 返回 periods 个预测值和所用方法
func (f *Forecaster) Forecast(series []float64, periods int) ([]float64, string, error) {
	if len(series) == 0 {
		return nil, "", ErrEmptySeries
	}
	if periods < 0 {
		periods = 0
	}
	if f.MaxPeriods > 0 && periods > f.MaxPeriods {
		return nil, "", fmt.Errorf("%w: %d exceeds the limit of %d", ErrPeriodsOutOfRange, periods, f.MaxPeriods)
	}

	mean, std := meanStd(series)

	if len(series) < minSeasonalLen {
		out := make([]float64, periods)
		for i := range out {
			out[i] = clamp01(mean + f.normal(std*f.NoiseScale*smallNoiseFactor))
		}
		return out, MethodSimpleAverage, nil
	}

	factors := WeeklyFactors(series)
	trend := RecentTrend(series)

	last := series[len(series)-weekLength:]
	base, _ := meanStd(last)

	out := make([]float64, periods)
	for i := range out {
		day := (len(series) + i) % weekLength
		value := base*factors[day] + trend*(float64(i)/weekLength)*trendDamping
		out[i] = value * ((1 - seasonalBlend) + seasonalBlend*factors[day])
		out[i] += f.normal(std * f.NoiseScale)
	}

	if len(out) >= len(smoothingKernel) {
		out = Smooth(out)
	}
	for i := range out {
		out[i] = clamp01(out[i])
	}
	return out, MethodSeasonalTrend, nil
}

// WeeklyFactors 按 下标 mod 7 分组求均值，再除以组均值的均值
func WeeklyFactors(series []float64) [weekLength]float64 {
	var sums, counts [weekLength]float64
	for i, v := range series {
		sums[i%weekLength] += v
		counts[i%weekLength]++
	}

	var pattern [weekLength]float64
	total := 0.0
	for d := range pattern {
		pattern[d] = sums[d] / math.Max(counts[d], 1)
		total += pattern[d]
	}
	weeklyMean := total / weekLength

	var factors [weekLength]float64
	for d := range factors {
		if weeklyMean > 0 {
			factors[d] = pattern[d] / weeklyMean
		} else {
			factors[d] = 1
		}
	}
	return factors
}

// RecentTrend 最近 14 个点均值减去之前 14 个点均值；不足 28 个点时为 0
func RecentTrend(series []float64) float64 {
	window := trendWindow
	if len(series) < window {
		window = len(series)
	}
	if len(series) < 2*window {
		return 0
	}
	n := len(series)
	recent, _ := meanStd(series[n-window:])
	prior, _ := meanStd(series[n-2*window : n-window])
	return recent - prior
}

// Smooth 三点卷积，边界外按 0 处理，输出与输入等长
func Smooth(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		sum := smoothingKernel[1] * values[i]
		if i > 0 {
			sum += smoothingKernel[0] * values[i-1]
		}
		if i < len(values)-1 {
			sum += smoothingKernel[2] * values[i+1]
		}
		out[i] = sum
	}
	return out
}

// meanStd 总体标准差
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
