package service

import (
	"student_risk_backend/internal/model"
	"sync/atomic"
	"time"
)

// Cohort 一次上传发布的不可变学生列表。发布后任何人都不能修改其中的记录。
type Cohort struct {
	UploadID    string
	Filename    string
	ArchiveURL  string
	Stats       IngestionStats
	PublishedAt time.Time

	students []*model.StudentRecord
	byID     map[string]int
	risks    []model.RiskAssessment
}

func NewCohort(uploadID, filename string, students []*model.StudentRecord, stats IngestionStats) *Cohort {
	c := &Cohort{
		UploadID:    uploadID,
		Filename:    filename,
		Stats:       stats,
		PublishedAt: time.Now(),
		students:    students,
		byID:        make(map[string]int, len(students)),
		risks:       make([]model.RiskAssessment, len(students)),
	}
	for i, s := range students {
		c.byID[s.ID] = i
		c.risks[i] = ScoreRisk(s)
	}
	return c
}

// Students 返回副本切片，元素指向共享的只读记录
func (c *Cohort) Students() []*model.StudentRecord {
	out := make([]*model.StudentRecord, len(c.students))
	copy(out, c.students)
	return out
}

func (c *Cohort) Len() int {
	return len(c.students)
}

func (c *Cohort) Student(id string) (*model.StudentRecord, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.students[i], true
}

func (c *Cohort) Risk(id string) (model.RiskAssessment, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.RiskAssessment{}, false
	}
	return c.risks[i], true
}

// AtRisk CohortRanker 的结果
func (c *Cohort) AtRisk() []model.RankedStudent {
	return RankAtRisk(c.students)
}

// CohortStore 持有当前发布的 Cohort，每次上传整体替换一次
type CohortStore struct {
	current atomic.Pointer[Cohort]
}

func NewCohortStore() *CohortStore {
	return &CohortStore{}
}

func (s *CohortStore) Publish(c *Cohort) {
	s.current.Store(c)
}

// Current 尚未上传时返回 nil
func (s *CohortStore) Current() *Cohort {
	return s.current.Load()
}
