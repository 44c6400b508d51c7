package service

import (
	"context"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/util"
	"student_risk_backend/pkg/logger"
	"student_risk_backend/pkg/monitoring"
	"student_risk_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Archiver 保存上传原件
type Archiver interface {
	Archive(ctx context.Context, filename string, content []byte) (string, error)
}

// CohortRecorder 持久化上传记录和风险快照
type CohortRecorder interface {
	SaveUpload(ctx context.Context, upload *model.CohortUpload, snapshots []model.StudentRiskSnapshot) error
	ListUploads(ctx context.Context, limit int) ([]model.CohortUpload, error)
}

// IngestionService 上传 -> 清洗聚合 -> 发布。
// 归档和持久化是可选的，失败只记录日志，不影响发布。
type IngestionService struct {
	store    *CohortStore
	archiver Archiver
	recorder CohortRecorder
}

func NewIngestionService(store *CohortStore, archiver Archiver, recorder CohortRecorder) *IngestionService {
	return &IngestionService{
		store:    store,
		archiver: archiver,
		recorder: recorder,
	}
}

// Build 纯函数：行 -> 学生列表。没有任何学生存活时返回 ErrNoValidStudents
func Build(rows []model.RawRow) ([]*model.StudentRecord, IngestionStats, error) {
	agg := NewStudentAggregator()
	for _, row := range rows {
		agg.AddRow(row)
	}
	students, stats := agg.Finalize()
	if len(students) == 0 {
		return nil, stats, util.ErrNoValidStudents
	}
	return students, stats, nil
}

// Ingest 处理一次上传；出错时当前发布的 cohort 保持不变
func (s *IngestionService) Ingest(ctx context.Context, filename string, content []byte) (*Cohort, error) {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ingest", attribute.String("upload.filename", filename))
	defer span.End()

	header, rows, err := ReadRows(content)
	if err != nil {
		return nil, err
	}
	if missing := MissingColumns(header); len(missing) > 0 {
		return nil, &util.MissingColumnsError{Columns: missing}
	}

	students, stats, err := Build(rows)
	monitoring.IngestionSkipped.WithLabelValues("row").Add(float64(stats.SkippedRows))
	monitoring.IngestionSkipped.WithLabelValues("attendance").Add(float64(stats.DroppedAttendance))
	monitoring.IngestionSkipped.WithLabelValues("exam").Add(float64(stats.DroppedExams))
	if err != nil {
		logger.Log.Warn("Upload produced no valid students",
			zap.String("filename", filename),
			zap.Int("rows", stats.TotalRows),
			zap.Int("skipped", stats.SkippedRows),
		)
		return nil, err
	}

	cohort := NewCohort(model.GenerateUUID(), filename, students, stats)

	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, filename, content)
		if err != nil {
			logger.Log.Error("Failed to archive upload", zap.String("filename", filename), zap.Error(err))
		} else {
			cohort.ArchiveURL = url
		}
	}

	s.store.Publish(cohort)
	monitoring.CohortStudents.Set(float64(cohort.Len()))
	monitoring.IngestionDuration.Observe(time.Since(started).Seconds())
	span.SetAttributes(attribute.Int("cohort.students", cohort.Len()))

	logger.Log.Info("Cohort published",
		zap.String("upload_id", cohort.UploadID),
		zap.String("filename", filename),
		zap.Int("rows", stats.TotalRows),
		zap.Int("students", stats.Students),
		zap.Int("skipped_rows", stats.SkippedRows),
		zap.Int("dropped_attendance", stats.DroppedAttendance),
		zap.Int("dropped_exams", stats.DroppedExams),
	)

	if s.recorder != nil {
		upload, snapshots := uploadRecord(cohort)
		if err := s.recorder.SaveUpload(ctx, upload, snapshots); err != nil {
			logger.Log.Error("Failed to persist cohort upload", zap.String("upload_id", cohort.UploadID), zap.Error(err))
		}
	}

	return cohort, nil
}

// History 最近的上传记录；未启用数据库时为空
func (s *IngestionService) History(ctx context.Context, limit int) ([]model.CohortUpload, error) {
	if s.recorder == nil {
		return []model.CohortUpload{}, nil
	}
	return s.recorder.ListUploads(ctx, limit)
}

func uploadRecord(c *Cohort) (*model.CohortUpload, []model.StudentRiskSnapshot) {
	atRisk := c.AtRisk()
	upload := &model.CohortUpload{
		Filename:          c.Filename,
		ArchiveURL:        c.ArchiveURL,
		TotalRows:         c.Stats.TotalRows,
		SkippedRows:       c.Stats.SkippedRows,
		DroppedAttendance: c.Stats.DroppedAttendance,
		DroppedExams:      c.Stats.DroppedExams,
		StudentCount:      c.Len(),
		AtRiskCount:       len(atRisk),
	}
	upload.ID = c.UploadID

	students := c.Students()
	snapshots := make([]model.StudentRiskSnapshot, 0, len(students))
	for _, s := range students {
		risk, _ := c.Risk(s.ID)
		snapshots = append(snapshots, model.StudentRiskSnapshot{
			UploadID:        c.UploadID,
			StudentID:       s.ID,
			StudentName:     s.Name,
			Subject:         s.Subject,
			AttendanceDays:  len(s.DailyAttendance),
			ExamCount:       len(s.ExamScores),
			AvgAttendance30: risk.AvgAttendance30,
			LastScore:       risk.LastScore,
			RiskScore:       risk.RiskScore,
			Tier:            risk.Tier,
		})
	}
	return upload, snapshots
}
