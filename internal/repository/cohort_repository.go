package repository

import (
	"context"
	"student_risk_backend/internal/model"

	"gorm.io/gorm"
)

type CohortRepository struct {
	DB *gorm.DB
}

func NewCohortRepository(db *gorm.DB) *CohortRepository {
	return &CohortRepository{DB: db}
}

// SaveUpload 上传记录和快照在同一事务中写入
func (r *CohortRepository) SaveUpload(ctx context.Context, upload *model.CohortUpload, snapshots []model.StudentRiskSnapshot) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(upload).Error; err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return nil
		}
		for i := range snapshots {
			snapshots[i].UploadID = upload.ID
		}
		return tx.CreateInBatches(snapshots, 200).Error
	})
}

func (r *CohortRepository) ListUploads(ctx context.Context, limit int) ([]model.CohortUpload, error) {
	var uploads []model.CohortUpload
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&uploads).Error
	return uploads, err
}

func (r *CohortRepository) FindSnapshots(ctx context.Context, uploadID string) ([]model.StudentRiskSnapshot, error) {
	var snapshots []model.StudentRiskSnapshot
	err := r.DB.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("risk_score DESC").
		Find(&snapshots).Error
	return snapshots, err
}

// Ping 健康检查用
func (r *CohortRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
