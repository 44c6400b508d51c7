package controller

import (
	"errors"
	"student_risk_backend/internal/service"
	"student_risk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Session *service.AnalysisSession
}

func NewSessionController(session *service.AnalysisSession) *SessionController {
	return &SessionController{Session: session}
}

// SelectRequest 选择学生
// swagger:model SelectRequest
type SelectRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// Select godoc
// @Summary 选择学生并分析
// @Description 依次运行出勤预测和 AI 洞察。已有分析进行中时返回 202 和当前状态，不会重复调用外部服务
// @Tags 分析
// @Accept  json
// @Produce  json
// @Param   body body SelectRequest true "学生 ID"
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Success 202 {object} util.Response{data=model.SessionSnapshot}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/session/select [post]
func (c *SessionController) Select(ctx *gin.Context) {
	var req SelectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.Session.Select(ctx.Request.Context(), req.StudentID)
	switch {
	case err == nil:
		util.Success(ctx, snap)
	case errors.Is(err, util.ErrAnalysisInFlight):
		util.Accepted(ctx, snap)
	case errors.Is(err, util.ErrNoCohort), errors.Is(err, util.ErrStudentNotFound):
		util.NotFound(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// Get godoc
// @Summary 当前分析状态
// @Tags 分析
// @Produce  json
// @Success 200 {object} util.Response{data=model.SessionSnapshot}
// @Security ApiKeyAuth
// @Router /api/session [get]
func (c *SessionController) Get(ctx *gin.Context) {
	util.Success(ctx, c.Session.Snapshot())
}
