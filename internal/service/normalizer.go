package service

import (
	"strings"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/util"
	"time"
)

// AttendanceCandidate 单行中解析出的出勤点，DayIndex 在排序后才分配
type AttendanceCandidate struct {
	Date            time.Time
	PresentFraction float64
}

type ExamCandidate struct {
	ExamNumber int
	Score      float64
}

// NormalizedRow RecordNormalizer 的输出：身份 + 最多一个出勤点 + 最多一个考试点
type NormalizedRow struct {
	StudentID   string
	StudentName string
	Subject     string
	Attendance  *AttendanceCandidate
	Exam        *ExamCandidate

	// 行里有出勤/考试字段但没能解析出来
	AttendanceDropped bool
	ExamDropped       bool
}

func field(row model.RawRow, key string) string {
	return strings.TrimSpace(row[key])
}

// NormalizeRow 清洗一行原始数据。没有身份（id 或姓名为空）时返回 ok=false，整行忽略。
// 可选字段格式错误只丢弃对应的候选，不报错。
func NormalizeRow(row model.RawRow) (NormalizedRow, bool) {
	id := field(row, model.ColStudentID)
	name := field(row, model.ColStudentName)
	if id == "" || name == "" {
		return NormalizedRow{}, false
	}

	out := NormalizedRow{
		StudentID:   id,
		StudentName: name,
		Subject:     field(row, model.ColSubject),
	}

	dateStr := field(row, model.ColDate)
	presentStr := field(row, model.ColPresent)
	if dateStr != "" || presentStr != "" {
		date, dateOK := util.ParseDate(dateStr)
		present, presentOK := util.ParseFloat(presentStr)
		if dateOK && presentOK {
			out.Attendance = &AttendanceCandidate{
				Date:            date,
				PresentFraction: present / 100,
			}
		} else {
			out.AttendanceDropped = true
		}
	}

	examStr := field(row, model.ColExamNumber)
	scoreStr := field(row, model.ColExamScore)
	if examStr != "" || scoreStr != "" {
		examNumber, examOK := util.ParseInt(examStr)
		score, scoreOK := util.ParseFloat(scoreStr)
		if examOK && scoreOK && examNumber > 0 {
			out.Exam = &ExamCandidate{ExamNumber: examNumber, Score: score}
		} else {
			out.ExamDropped = true
		}
	}

	return out, true
}
