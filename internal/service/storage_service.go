package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/util"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveProvider 上传原件的归档后端
type ArchiveProvider interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// LocalArchive 写入本地目录
type LocalArchive struct {
	Root string
}

func (p *LocalArchive) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	dst := filepath.Join(p.Root, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *LocalArchive) Delete(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(p.Root, key))
}

func (p *LocalArchive) URL(key string) string {
	return "/uploads/" + key
}

// MinioArchive MinIO 归档
type MinioArchive struct {
	Bucket string
	Client *minio.Client
}

func NewMinioArchive(cfg *config.StorageConfig) (*MinioArchive, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArchive{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioArchive) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *MinioArchive) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Bucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioArchive) URL(key string) string {
	return "/" + p.Bucket + "/" + key
}

// OSSArchive 阿里云 OSS 归档
type OSSArchive struct {
	Endpoint string
	Bucket   string
	Client   *oss.Client
}

func NewOSSArchive(cfg *config.StorageConfig) (*OSSArchive, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSArchive{Endpoint: cfg.OSSEndpoint, Bucket: cfg.OSSBucket, Client: client}, nil
}

func (p *OSSArchive) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Bucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, bytes.NewReader(content), oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *OSSArchive) Delete(ctx context.Context, key string) error {
	bucket, err := p.Client.Bucket(p.Bucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(key)
}

func (p *OSSArchive) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Bucket, p.Endpoint, key)
}

// StorageService 按配置选择归档后端，远端初始化失败时退回本地目录
type StorageService struct {
	Provider ArchiveProvider
}

func NewStorageService(cfg *config.StorageConfig) *StorageService {
	var provider ArchiveProvider
	switch cfg.Type {
	case util.StorageMinio:
		if p, err := NewMinioArchive(cfg); err == nil {
			provider = p
		}
	case util.StorageOSS:
		if p, err := NewOSSArchive(cfg); err == nil {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalArchive{Root: cfg.LocalPath}
	}
	return &StorageService{Provider: provider}
}

// ArchiveKey cohorts/<日期>/<时间>_<短 id><扩展名>
func ArchiveKey(filename string, now time.Time) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".csv"
	}
	return fmt.Sprintf("cohorts/%s/%s_%s%s",
		now.Format("20060102"), now.Format("150405"), uuid.NewString()[:8], ext)
}

// Archive 保存上传原件，返回可访问的地址
func (s *StorageService) Archive(ctx context.Context, filename string, content []byte) (string, error) {
	return s.Provider.Put(ctx, ArchiveKey(filename, time.Now()), content, util.MimeCSV)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}
