package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/service"
	"student_risk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CohortController struct {
	Ingestion   *service.IngestionService
	Store       *service.CohortStore
	MaxUploadMB int64
}

func NewCohortController(ingestion *service.IngestionService, store *service.CohortStore, maxUploadMB int64) *CohortController {
	return &CohortController{
		Ingestion:   ingestion,
		Store:       store,
		MaxUploadMB: maxUploadMB,
	}
}

// StudentSummary 学生列表项
// swagger:model StudentSummary
type StudentSummary struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Subject        string               `json:"subject"`
	AttendanceDays int                  `json:"attendanceDays"`
	ExamCount      int                  `json:"examCount"`
	Risk           model.RiskAssessment `json:"risk"`
}

// UploadResult 上传结果
// swagger:model UploadResult
type UploadResult struct {
	UploadID   string                 `json:"uploadId"`
	Filename   string                 `json:"filename"`
	ArchiveURL string                 `json:"archiveUrl,omitempty"`
	Stats      service.IngestionStats `json:"stats"`
	AtRisk     []model.RankedStudent  `json:"atRisk"`
}

func summarize(c *service.Cohort, s *model.StudentRecord) StudentSummary {
	risk, _ := c.Risk(s.ID)
	return StudentSummary{
		ID:             s.ID,
		Name:           s.Name,
		Subject:        s.Subject,
		AttendanceDays: len(s.DailyAttendance),
		ExamCount:      len(s.ExamScores),
		Risk:           risk,
	}
}

func (c *CohortController) currentCohort(ctx *gin.Context) *service.Cohort {
	cohort := c.Store.Current()
	if cohort == nil {
		util.NotFound(ctx, util.ErrNoCohort.Error())
	}
	return cohort
}

// Upload godoc
// @Summary 上传学生 CSV
// @Description 解析、清洗并发布新的学生列表。缺少必需列或没有任何有效学生时返回 400，当前列表保持不变
// @Tags 学生
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "CSV 文件"
// @Success 201 {object} util.Response{data=UploadResult}
// @Failure 400 {object} util.Response
// @Failure 413 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/cohort/upload [post]
func (c *CohortController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if !util.HasAllowedExtension(file.Filename, util.AllowedUploadExtensions) {
		util.BadRequest(ctx, "only .csv files are accepted")
		return
	}
	if c.MaxUploadMB > 0 && file.Size > c.MaxUploadMB<<20 {
		util.Error(ctx, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", c.MaxUploadMB))
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, util.AllowedUploadMimeTypes); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	content, err := io.ReadAll(src)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	cohort, err := c.Ingestion.Ingest(ctx.Request.Context(), file.Filename, content)
	if err != nil {
		var missing *util.MissingColumnsError
		if errors.As(err, &missing) {
			ctx.JSON(http.StatusBadRequest, util.Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
				Data:    gin.H{"missingColumns": missing.Columns},
			})
			return
		}
		// 其余错误（空文件、无有效学生、CSV 格式错误）都属于上传内容问题
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, UploadResult{
		UploadID:   cohort.UploadID,
		Filename:   cohort.Filename,
		ArchiveURL: cohort.ArchiveURL,
		Stats:      cohort.Stats,
		AtRisk:     cohort.AtRisk(),
	})
}

// ListStudents godoc
// @Summary 学生列表
// @Description 当前发布的学生列表，按首次出现顺序
// @Tags 学生
// @Produce  json
// @Success 200 {object} util.Response{data=[]StudentSummary}
// @Failure 404 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/cohort/students [get]
func (c *CohortController) ListStudents(ctx *gin.Context) {
	cohort := c.currentCohort(ctx)
	if cohort == nil {
		return
	}

	students := cohort.Students()
	out := make([]StudentSummary, 0, len(students))
	for _, s := range students {
		out = append(out, summarize(cohort, s))
	}
	util.Success(ctx, gin.H{
		"uploadId": cohort.UploadID,
		"students": out,
	})
}

// GetStudent godoc
// @Summary 学生详情
// @Description 完整的出勤与考试序列及风险评估
// @Tags 学生
// @Produce  json
// @Param   id path string true "学生 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/cohort/students/{id} [get]
func (c *CohortController) GetStudent(ctx *gin.Context) {
	cohort := c.currentCohort(ctx)
	if cohort == nil {
		return
	}

	rec, ok := cohort.Student(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx, util.ErrStudentNotFound.Error())
		return
	}
	risk, _ := cohort.Risk(rec.ID)
	util.Success(ctx, gin.H{
		"student": rec,
		"risk":    risk,
	})
}

// AtRisk godoc
// @Summary 高风险学生
// @Description 风险分数大于 0.4 的学生，降序，最多 10 个
// @Tags 学生
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.RankedStudent}
// @Failure 404 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/cohort/at-risk [get]
func (c *CohortController) AtRisk(ctx *gin.Context) {
	cohort := c.currentCohort(ctx)
	if cohort == nil {
		return
	}
	util.Success(ctx, cohort.AtRisk())
}

// ListUploads godoc
// @Summary 上传历史
// @Tags 学生
// @Produce  json
// @Param   limit query int false "条数，默认 20"
// @Success 200 {object} util.Response{data=[]model.CohortUpload}
// @Security ApiKeyAuth
// @Router /api/uploads [get]
func (c *CohortController) ListUploads(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	uploads, err := c.Ingestion.History(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, uploads)
}
