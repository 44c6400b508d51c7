package service

import (
	"context"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedForecaster struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *gatedForecaster) Predict(ctx context.Context, series []float64, horizon int) (*ForecastResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	points := make([]float64, horizon)
	for i := range points {
		points[i] = 0.8
	}
	return &ForecastResponse{Success: true, Forecast: points, Method: "stub"}, nil
}

func (f *gatedForecaster) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingChat struct {
	mu    sync.Mutex
	calls int
}

func (c *countingChat) Chat(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return `{"summary":"ok","riskLevel":"low","failProbability":10,"alerts":[],"recommendations":[]}`, nil
}

func (c *countingChat) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func publishTestCohort(store *CohortStore, uploadID string) {
	students := []*model.StudentRecord{
		studentWith("S1", 0.9, 30, 80),
		studentWith("S2", 0.4, 30, 30),
	}
	store.Publish(NewCohort(uploadID, "cohort.csv", students, IngestionStats{Students: len(students)}))
}

func newTestSession(f *gatedForecaster, chat *countingChat) (*AnalysisSession, *CohortStore) {
	store := NewCohortStore()
	session := NewAnalysisSession(store, NewForecastService(f), NewInsightService(chat), nil, 7)
	return session, store
}

func TestSession_RequiresCohortAndKnownStudent(t *testing.T) {
	session, store := newTestSession(&gatedForecaster{}, &countingChat{})

	_, err := session.Select(context.Background(), "S1")
	assert.ErrorIs(t, err, util.ErrNoCohort)

	publishTestCohort(store, "u1")
	_, err = session.Select(context.Background(), "nobody")
	assert.ErrorIs(t, err, util.ErrStudentNotFound)
}

func TestSession_SelectRunsForecastThenInsight(t *testing.T) {
	f := &gatedForecaster{}
	chat := &countingChat{}
	session, store := newTestSession(f, chat)
	publishTestCohort(store, "u1")

	snap, err := session.Select(context.Background(), "S2")
	require.NoError(t, err)
	assert.Equal(t, "S2", snap.SelectedStudentID)
	assert.False(t, snap.InFlight)
	require.NotNil(t, snap.Forecast)
	assert.Len(t, snap.Forecast.Points, 7)
	assert.Equal(t, model.ForecastRemote, snap.Forecast.Method)
	require.NotNil(t, snap.Insight)
	assert.Equal(t, model.InsightRemote, snap.Insight.Source)
	require.NotNil(t, snap.Risk)
	assert.Equal(t, model.RiskHigh, snap.Risk.Tier)

	// 重复选择同一学生不会再次调用外部服务
	_, err = session.Select(context.Background(), "S2")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, 1, chat.Calls())
}

func TestSession_CachedInsightIsReused(t *testing.T) {
	f := &gatedForecaster{}
	chat := &countingChat{}
	session, store := newTestSession(f, chat)
	publishTestCohort(store, "u1")

	for _, id := range []string{"S1", "S2", "S1"} {
		_, err := session.Select(context.Background(), id)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, 2, chat.Calls())
}

func TestSession_InFlightGuardAndStaleDiscard(t *testing.T) {
	f := &gatedForecaster{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	chat := &countingChat{}
	session, store := newTestSession(f, chat)
	publishTestCohort(store, "u1")

	done := make(chan model.SessionSnapshot, 1)
	go func() {
		snap, err := session.Select(context.Background(), "S1")
		assert.NoError(t, err)
		done <- snap
	}()
	<-f.started

	snap, err := session.Select(context.Background(), "S2")
	assert.ErrorIs(t, err, util.ErrAnalysisInFlight)
	assert.True(t, snap.InFlight)
	assert.Equal(t, "S2", snap.SelectedStudentID)
	assert.Equal(t, 1, f.Calls())

	close(f.release)
	first := <-done

	// S1 的结果在返回时已过期，被丢弃
	assert.Equal(t, "S2", first.SelectedStudentID)
	assert.Nil(t, first.Forecast)
	assert.Nil(t, first.Insight)
	assert.False(t, first.InFlight)

	f.started = nil
	snap, err = session.Select(context.Background(), "S2")
	require.NoError(t, err)
	require.NotNil(t, snap.Forecast)
	assert.Equal(t, "S2", snap.SelectedStudentID)
}

func TestSession_NewCohortResetsSelection(t *testing.T) {
	session, store := newTestSession(&gatedForecaster{}, &countingChat{})
	publishTestCohort(store, "u1")

	_, err := session.Select(context.Background(), "S1")
	require.NoError(t, err)

	publishTestCohort(store, "u2")
	snap := session.Snapshot()
	assert.Equal(t, "u2", snap.UploadID)
	assert.Empty(t, snap.SelectedStudentID)
	assert.Nil(t, snap.Forecast)
	assert.Nil(t, snap.Insight)
}

func TestSession_SetHorizon(t *testing.T) {
	session, store := newTestSession(&gatedForecaster{}, &countingChat{})
	publishTestCohort(store, "u1")

	session.SetHorizon(3)
	session.SetHorizon(0)
	snap, err := session.Select(context.Background(), "S1")
	require.NoError(t, err)
	assert.Len(t, snap.Forecast.Points, 3)
}

func TestCohortStore_PublishReplacesWholesale(t *testing.T) {
	store := NewCohortStore()
	assert.Nil(t, store.Current())

	publishTestCohort(store, "u1")
	first := store.Current()
	publishTestCohort(store, "u2")

	assert.Equal(t, "u1", first.UploadID)
	assert.Equal(t, "u2", store.Current().UploadID)
	assert.Equal(t, 2, store.Current().Len())

	rec, ok := store.Current().Student("S2")
	require.True(t, ok)
	assert.Equal(t, "S2", rec.ID)

	atRisk := store.Current().AtRisk()
	require.Len(t, atRisk, 1)
	assert.Equal(t, "S2", atRisk[0].Student.ID)
}

// ctxChat 调用方的 ctx 已取消时按网络失败返回
type ctxChat struct {
	countingChat
}

func (c *ctxChat) Chat(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RemoteError{Kind: FailureNetwork, Err: err}
	}
	return c.countingChat.Chat(ctx, prompt)
}

type recordingCache struct {
	*MemoryInsightCache
	mu   sync.Mutex
	keys []string
}

func (c *recordingCache) Set(ctx context.Context, uploadID, studentID string, insight model.Insight) error {
	c.mu.Lock()
	c.keys = append(c.keys, insightKey(uploadID, studentID))
	c.mu.Unlock()
	return c.MemoryInsightCache.Set(ctx, uploadID, studentID, insight)
}

func (c *recordingCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keys...)
}

func TestSession_CallerCancellationDoesNotPoisonInsight(t *testing.T) {
	chat := &ctxChat{}
	store := NewCohortStore()
	session := NewAnalysisSession(store, NewForecastService(&gatedForecaster{}), NewInsightService(chat), nil, 7)
	publishTestCohort(store, "u1")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := session.Select(cancelled, "S1")
	require.NoError(t, err)
	require.NotNil(t, snap.Insight)
	assert.Equal(t, model.InsightRemote, snap.Insight.Source)

	_, err = session.Select(context.Background(), "S2")
	require.NoError(t, err)
	snap, err = session.Select(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, model.InsightRemote, snap.Insight.Source)
	assert.Equal(t, "ok", snap.Insight.Summary)
	assert.Equal(t, 2, chat.Calls())
}

func TestSession_ResultsKeyedToSourceCohort(t *testing.T) {
	f := &gatedForecaster{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	cache := &recordingCache{MemoryInsightCache: NewMemoryInsightCache()}
	store := NewCohortStore()
	session := NewAnalysisSession(store, NewForecastService(f), NewInsightService(&countingChat{}), cache, 7)
	publishTestCohort(store, "u1")

	done := make(chan model.SessionSnapshot, 1)
	go func() {
		snap, err := session.Select(context.Background(), "S1")
		assert.NoError(t, err)
		done <- snap
	}()
	<-f.started

	// 分析进行中发布新的 cohort，S1 在新 cohort 中是高风险
	students := []*model.StudentRecord{studentWith("S1", 0.2, 30, 20)}
	store.Publish(NewCohort("u2", "cohort.csv", students, IngestionStats{Students: 1}))
	assert.Equal(t, "u2", session.Snapshot().UploadID)

	close(f.release)
	stale := <-done
	assert.Equal(t, "u2", stale.UploadID)
	assert.Empty(t, stale.SelectedStudentID)
	assert.Nil(t, stale.Insight)
	assert.Equal(t, []string{"u1:S1"}, cache.Keys())

	f.started = nil
	snap, err := session.Select(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "u2", snap.UploadID)
	require.NotNil(t, snap.Risk)
	assert.Equal(t, model.RiskHigh, snap.Risk.Tier)
	assert.Equal(t, []string{"u1:S1", "u2:S1"}, cache.Keys())
}
