package service

import (
	"context"
	"student_risk_backend/internal/model"
	"student_risk_backend/pkg/logger"
	"student_risk_backend/pkg/monitoring"
	"student_risk_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// 空序列时兜底使用的出勤率
const emptySeriesFallback = 0.5

// Forecaster 远端预测的最小接口，便于替换和测试
type Forecaster interface {
	Predict(ctx context.Context, series []float64, horizon int) (*ForecastResponse, error)
}

// ForecastService 两级预测：先远端，失败时用历史均值平铺
type ForecastService struct {
	client Forecaster
}

func NewForecastService(client Forecaster) *ForecastService {
	return &ForecastService{client: client}
}

// Forecast 不会返回错误，兜底是最终的恢复路径。无状态，可重复调用。
func (s *ForecastService) Forecast(ctx context.Context, series []float64, horizon int) model.ForecastResult {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "forecast",
		attribute.Int("forecast.series_len", len(series)),
		attribute.Int("forecast.horizon", horizon),
	)
	defer span.End()

	remote := func(ctx context.Context) (model.ForecastResult, error) {
		resp, err := s.client.Predict(ctx, series, horizon)
		if err != nil {
			return model.ForecastResult{}, err
		}
		return model.ForecastResult{
			Points:       resp.Forecast,
			Method:       model.ForecastRemote,
			RemoteMethod: resp.Method,
		}, nil
	}

	fallback := func(err error) model.ForecastResult {
		logger.Log.Warn("Forecast service unavailable, using average fallback",
			zap.String("failure", string(FailureKindOf(err))),
			zap.Error(err),
		)
		return FallbackForecast(series, horizon)
	}

	result, fellBack, _ := WithFallback(ctx, remote, fallback, AnyFailure)
	span.SetAttributes(attribute.String("forecast.method", string(result.Method)))
	monitoring.ObserveExternalCall("forecast", fellBack, started)
	return result
}

// FallbackForecast 序列均值（空序列为 0.5）重复 horizon 次
func FallbackForecast(series []float64, horizon int) model.ForecastResult {
	mean := emptySeriesFallback
	if len(series) > 0 {
		sum := 0.0
		for _, v := range series {
			sum += v
		}
		mean = sum / float64(len(series))
	}

	if horizon < 0 {
		horizon = 0
	}
	points := make([]float64, horizon)
	for i := range points {
		points[i] = mean
	}

	return model.ForecastResult{
		Points: points,
		Method: model.ForecastFallbackAverage,
	}
}
