package service

import (
	"context"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/util"
	"student_risk_backend/pkg/logger"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// InsightCache 按 (upload, student) 缓存洞察结果
type InsightCache interface {
	Get(ctx context.Context, uploadID, studentID string) (*model.Insight, bool)
	Set(ctx context.Context, uploadID, studentID string, insight model.Insight) error
}

// MemoryInsightCache 未启用 Redis 时使用
type MemoryInsightCache struct {
	mu    sync.RWMutex
	items map[string]model.Insight
}

func NewMemoryInsightCache() *MemoryInsightCache {
	return &MemoryInsightCache{items: make(map[string]model.Insight)}
}

func insightKey(uploadID, studentID string) string {
	return uploadID + ":" + studentID
}

func (c *MemoryInsightCache) Get(ctx context.Context, uploadID, studentID string) (*model.Insight, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	insight, ok := c.items[insightKey(uploadID, studentID)]
	if !ok {
		return nil, false
	}
	return &insight, true
}

func (c *MemoryInsightCache) Set(ctx context.Context, uploadID, studentID string, insight model.Insight) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[insightKey(uploadID, studentID)] = insight
	return nil
}

// AnalysisSession 当前分析会话：选中的学生、最近一次预测和洞察、in-flight 标记。
// 同一时间只允许一次分析；分析期间切换学生不会取消进行中的调用，
// 返回时若选中的学生已变化，结果直接丢弃。
type AnalysisSession struct {
	cohorts  *CohortStore
	forecast *ForecastService
	insight  *InsightService
	cache    InsightCache
	horizon  atomic.Int64

	mu sync.Mutex
	// 会话绑定的 cohort，选中的学生和缓存键都来自它
	cohort     *Cohort
	selectedID string
	// 每次选择递增，用于识别过期结果
	generation   uint64
	lastForecast *model.ForecastResult
	lastInsight  *model.Insight
	inFlight     bool
	updatedAt    time.Time
}

func NewAnalysisSession(cohorts *CohortStore, forecast *ForecastService, insight *InsightService, cache InsightCache, horizon int) *AnalysisSession {
	if cache == nil {
		cache = NewMemoryInsightCache()
	}
	s := &AnalysisSession{
		cohorts:  cohorts,
		forecast: forecast,
		insight:  insight,
		cache:    cache,
	}
	s.horizon.Store(int64(horizon))
	return s
}

// SetHorizon 配置热更新
func (s *AnalysisSession) SetHorizon(horizon int) {
	if horizon > 0 {
		s.horizon.Store(int64(horizon))
	}
}

// Snapshot 当前会话状态。cohort 被替换后旧的选择不再有效
func (s *AnalysisSession) Snapshot() model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCohortLocked(s.cohorts.Current())
	return s.snapshotLocked()
}

// syncCohortLocked 绑定到给定的 cohort；与当前绑定不同时清空选择和结果
func (s *AnalysisSession) syncCohortLocked(cohort *Cohort) {
	if cohort == nil || cohort == s.cohort {
		return
	}
	s.cohort = cohort
	s.selectedID = ""
	s.lastForecast = nil
	s.lastInsight = nil
	s.generation++
	s.updatedAt = time.Now()
}

func (s *AnalysisSession) snapshotLocked() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		SelectedStudentID: s.selectedID,
		Forecast:          s.lastForecast,
		Insight:           s.lastInsight,
		InFlight:          s.inFlight,
		UpdatedAt:         s.updatedAt,
	}
	if s.cohort != nil {
		snap.UploadID = s.cohort.UploadID
		if s.selectedID != "" {
			if risk, ok := s.cohort.Risk(s.selectedID); ok {
				snap.Risk = &risk
			}
		}
	}
	return snap
}

// Select 切换选中的学生并运行 预测 -> 洞察。
// 已有分析在进行时记录新的选择并返回 ErrAnalysisInFlight；
// 同一学生已有结果时直接返回，不重复调用远端。
// 分析不随 ctx 取消：调用方断开后进行中的请求照常完成，超时由各客户端自己控制。
func (s *AnalysisSession) Select(ctx context.Context, studentID string) (model.SessionSnapshot, error) {
	s.mu.Lock()
	cohort := s.cohorts.Current()
	if cohort == nil {
		s.mu.Unlock()
		return model.SessionSnapshot{}, util.ErrNoCohort
	}
	rec, ok := cohort.Student(studentID)
	if !ok {
		s.mu.Unlock()
		return model.SessionSnapshot{}, util.ErrStudentNotFound
	}

	s.syncCohortLocked(cohort)
	if studentID != s.selectedID {
		s.selectedID = studentID
		s.lastForecast = nil
		s.lastInsight = nil
		s.generation++
		s.updatedAt = time.Now()
	}
	if s.inFlight {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, util.ErrAnalysisInFlight
	}
	if s.lastForecast != nil && s.lastInsight != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.inFlight = true
	generation := s.generation
	s.mu.Unlock()

	forecast, insight := s.analyse(context.WithoutCancel(ctx), cohort.UploadID, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if generation != s.generation {
		logger.Log.Debug("Discarding stale analysis result",
			zap.String("student_id", studentID),
			zap.String("selected_id", s.selectedID),
		)
		return s.snapshotLocked(), nil
	}
	s.lastForecast = &forecast
	s.lastInsight = &insight
	s.updatedAt = time.Now()
	return s.snapshotLocked(), nil
}

// analyse 洞察依赖预测均值，所以两次调用顺序执行
func (s *AnalysisSession) analyse(ctx context.Context, uploadID string, rec *model.StudentRecord) (model.ForecastResult, model.Insight) {
	forecast := s.forecast.Forecast(ctx, rec.PresentSeries(), int(s.horizon.Load()))

	if cached, ok := s.cache.Get(ctx, uploadID, rec.ID); ok {
		return forecast, *cached
	}

	insight := s.insight.Generate(ctx, rec, forecast.Points)
	if err := s.cache.Set(ctx, uploadID, rec.ID, insight); err != nil {
		logger.Log.Warn("Failed to cache insight", zap.String("student_id", rec.ID), zap.Error(err))
	}
	return forecast, insight
}
