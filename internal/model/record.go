package model

import "time"

// RawRow 上游 CSV 中的一行，列名 -> 原始字符串
type RawRow map[string]string

// 必需列与可选列
const (
	ColStudentID   = "student_id"
	ColStudentName = "student_name"
	ColSubject     = "subject"
	ColDate        = "date"
	ColPresent     = "present"
	ColExamNumber  = "exam_number"
	ColExamScore   = "exam_score"
)

var RequiredColumns = []string{ColStudentID, ColStudentName, ColSubject, ColDate, ColPresent}

// DefaultSubject 缺失科目时的占位值
const DefaultSubject = "N/A"

// swagger:model
type AttendancePoint struct {
	Date            time.Time `json:"date"`
	PresentFraction float64   `json:"presentFraction"`
	// 排序后才分配，按日期升序的 1-based 序号
	DayIndex int `json:"dayIndex"`
}

// swagger:model
type ExamPoint struct {
	ExamNumber       int     `json:"examNumber"`
	Score            float64 `json:"score"`
	AttendanceAtExam float64 `json:"attendanceAtExam"`
}

// swagger:model
type StudentRecord struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Subject         string            `json:"subject"`
	DailyAttendance []AttendancePoint `json:"dailyAttendance"`
	ExamScores      []ExamPoint       `json:"examScores"`
}

// PresentSeries 返回按顺序排列的出勤比例序列
func (r *StudentRecord) PresentSeries() []float64 {
	series := make([]float64, len(r.DailyAttendance))
	for i, p := range r.DailyAttendance {
		series[i] = p.PresentFraction
	}
	return series
}

// LastExam 返回 examNumber 最大的考试；ExamScores 已按 examNumber 升序
func (r *StudentRecord) LastExam() (ExamPoint, bool) {
	if len(r.ExamScores) == 0 {
		return ExamPoint{}, false
	}
	last := r.ExamScores[0]
	for _, e := range r.ExamScores[1:] {
		if e.ExamNumber > last.ExamNumber {
			last = e
		}
	}
	return last, true
}
