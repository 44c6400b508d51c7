package service

import (
	"sort"
	"student_risk_backend/internal/model"
)

// ExamWindowDays 每场考试对应的出勤窗口长度。
// 注意窗口按数组位置截取（前 examNumber*30 条），不是按日历日期，
// 出勤数据有空缺时会与实际考试时间错位。保留这个行为，上游报表依赖它。
const ExamWindowDays = 30

// FinalizeSeries 排序、编号并计算考试时的出勤率；两个序列都为空的学生被丢弃
func FinalizeSeries(pending []*model.StudentRecord) []*model.StudentRecord {
	out := make([]*model.StudentRecord, 0, len(pending))
	for _, rec := range pending {
		sort.SliceStable(rec.DailyAttendance, func(i, j int) bool {
			return rec.DailyAttendance[i].Date.Before(rec.DailyAttendance[j].Date)
		})
		for i := range rec.DailyAttendance {
			rec.DailyAttendance[i].DayIndex = i + 1
		}

		sort.SliceStable(rec.ExamScores, func(i, j int) bool {
			return rec.ExamScores[i].ExamNumber < rec.ExamScores[j].ExamNumber
		})
		for i := range rec.ExamScores {
			rec.ExamScores[i].AttendanceAtExam = AttendanceAtExam(rec.DailyAttendance, rec.ExamScores[i].ExamNumber)
		}

		if len(rec.DailyAttendance) == 0 && len(rec.ExamScores) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// AttendanceAtExam 前 examNumber*30 个出勤点的平均出勤百分比，窗口为空时为 0
func AttendanceAtExam(attendance []model.AttendancePoint, examNumber int) float64 {
	if examNumber <= 0 || len(attendance) == 0 {
		return 0
	}
	// 先比较再相乘，超大的考试编号不会溢出
	end := len(attendance)
	if examNumber <= len(attendance)/ExamWindowDays {
		end = examNumber * ExamWindowDays
	}
	sum := 0.0
	for _, p := range attendance[:end] {
		sum += p.PresentFraction
	}
	return sum / float64(end) * 100
}
