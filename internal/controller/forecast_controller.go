package controller

import (
	"net/http"
	"student_risk_backend/internal/forecasting"
	"student_risk_backend/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultForecastPeriods = 30

// ForecastController 本地预测服务，与外部预测服务使用同样的报文格式
type ForecastController struct {
	Forecaster *forecasting.Forecaster
}

func NewForecastController(f *forecasting.Forecaster) *ForecastController {
	return &ForecastController{Forecaster: f}
}

// ForecastBody periods 缺省为 30，超过 forecast.max_periods 返回 400
// swagger:model ForecastBody
type ForecastBody struct {
	AttendanceData []float64 `json:"attendance_data"`
	Periods        *int      `json:"periods"`
}

// Forecast godoc
// @Summary 出勤率预测
// @Description 输入按日期排列的出勤比例，返回 periods 个 [0,1] 的预测值；periods 超过上限时返回 400
// @Tags 预测
// @Accept  json
// @Produce  json
// @Param   body body ForecastBody true "出勤序列"
// @Success 200 {object} service.ForecastResponse
// @Failure 400 {object} service.ForecastResponse
// @Router /forecast [post]
func (c *ForecastController) Forecast(ctx *gin.Context) {
	var body ForecastBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, service.ForecastResponse{Success: false, Error: err.Error()})
		return
	}

	periods := defaultForecastPeriods
	if body.Periods != nil {
		periods = *body.Periods
	}

	points, method, err := c.Forecaster.Forecast(body.AttendanceData, periods)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, service.ForecastResponse{Success: false, Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, service.ForecastResponse{
		Success:  true,
		Forecast: points,
		Method:   method,
	})
}

// Health godoc
// @Summary 预测服务健康检查
// @Tags 预测
// @Produce json
// @Success 200 {object} object
// @Router /health [get]
func (c *ForecastController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "Forecast API is running"})
}
