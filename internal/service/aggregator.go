package service

import (
	"student_risk_backend/internal/model"
)

// IngestionStats 一次导入过程中的行级统计
type IngestionStats struct {
	TotalRows         int `json:"totalRows"`
	SkippedRows       int `json:"skippedRows"`
	DroppedAttendance int `json:"droppedAttendance"`
	DroppedExams      int `json:"droppedExams"`
	DuplicateExams    int `json:"duplicateExams"`
	Students          int `json:"students"`
}

// StudentAggregator 把清洗后的行折叠为 学生 -> 累积序列。
// 只在单次导入中使用，不是并发安全的；Finalize 后即丢弃。
type StudentAggregator struct {
	records map[string]*model.StudentRecord
	// 首次出现的顺序，保证发布列表的顺序稳定
	order []string
	stats IngestionStats
}

func NewStudentAggregator() *StudentAggregator {
	return &StudentAggregator{
		records: make(map[string]*model.StudentRecord),
	}
}

// AddRow 清洗并合并一行
func (a *StudentAggregator) AddRow(row model.RawRow) {
	a.stats.TotalRows++

	fact, ok := NormalizeRow(row)
	if !ok {
		a.stats.SkippedRows++
		return
	}
	if fact.AttendanceDropped {
		a.stats.DroppedAttendance++
	}
	if fact.ExamDropped {
		a.stats.DroppedExams++
	}
	a.Add(fact)
}

// Add 合并一个已清洗的事实
func (a *StudentAggregator) Add(fact NormalizedRow) {
	rec, exists := a.records[fact.StudentID]
	if !exists {
		subject := fact.Subject
		if subject == "" {
			subject = model.DefaultSubject
		}
		rec = &model.StudentRecord{
			ID:              fact.StudentID,
			Name:            fact.StudentName,
			Subject:         subject,
			DailyAttendance: []model.AttendancePoint{},
			ExamScores:      []model.ExamPoint{},
		}
		a.records[fact.StudentID] = rec
		a.order = append(a.order, fact.StudentID)
	}

	if fact.Attendance != nil {
		rec.DailyAttendance = append(rec.DailyAttendance, model.AttendancePoint{
			Date:            fact.Attendance.Date,
			PresentFraction: fact.Attendance.PresentFraction,
		})
	}

	if fact.Exam != nil {
		// 同一 examNumber 先到先得，后续重复直接丢弃
		for _, e := range rec.ExamScores {
			if e.ExamNumber == fact.Exam.ExamNumber {
				a.stats.DuplicateExams++
				return
			}
		}
		rec.ExamScores = append(rec.ExamScores, model.ExamPoint{
			ExamNumber: fact.Exam.ExamNumber,
			Score:      fact.Exam.Score,
		})
	}
}

// Finalize 交给 SeriesFinalizer，返回不可变的发布列表
func (a *StudentAggregator) Finalize() ([]*model.StudentRecord, IngestionStats) {
	pending := make([]*model.StudentRecord, 0, len(a.order))
	for _, id := range a.order {
		pending = append(pending, a.records[id])
	}
	students := FinalizeSeries(pending)

	stats := a.stats
	stats.Students = len(students)

	a.records = nil
	a.order = nil
	return students, stats
}
