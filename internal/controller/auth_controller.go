package controller

import (
	"errors"
	"net/http"
	"student_risk_backend/internal/service"
	"student_risk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// LoginRequest 操作员登录
// swagger:model LoginRequest
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 操作员登录
// @Description 校验配置中的操作员账号，返回 JWT
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=object} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "用户名或密码错误"
// @Failure 404 {object} util.Response "未启用登录"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	if !c.AuthService.Enabled() {
		util.NotFound(ctx, "login is disabled")
		return
	}

	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Error(ctx, http.StatusUnauthorized, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"token": token})
}
