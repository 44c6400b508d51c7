package controller

import (
	"context"
	"net/http"
	"student_risk_backend/internal/service"
	"student_risk_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 可选依赖（数据库、Redis）的健康探测
type Pinger interface {
	Ping(ctx context.Context) error
}

// ForecastProber 预测服务的健康探测
type ForecastProber interface {
	Health(ctx context.Context) service.ForecastHealth
}

type HealthController struct {
	DB       Pinger
	Redis    Pinger
	Forecast ForecastProber
}

func NewHealthController(db, redis Pinger, forecast ForecastProber) *HealthController {
	return &HealthController{DB: db, Redis: redis, Forecast: forecast}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

// @Summary 健康检查
// @Description 检查服务及依赖状态。预测服务不可用不影响整体状态，分析会自动降级
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	components := gin.H{
		"database": probe(probeCtx, c.DB),
		"redis":    probe(probeCtx, c.Redis),
		"forecast": c.Forecast.Health(probeCtx),
	}

	if components["database"] == "down" || components["redis"] == "down" {
		ctx.JSON(http.StatusServiceUnavailable, util.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "dependency unavailable",
			Data:    gin.H{"status": "degraded", "components": components},
		})
		return
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
