package service

import (
	"sort"
	"student_risk_backend/internal/model"
)

const (
	RecentAttendanceWindow = 30

	attendanceWeight  = 0.4
	performanceWeight = 0.6

	highRiskThreshold   = 0.6
	mediumRiskThreshold = 0.4

	// CohortRanker 只取风险分高于中风险线的前 10 名
	AtRiskLimit = 10
)

// AvgRecentAttendance 最近 30 个出勤点的平均出勤比例（不足 30 取全部），无数据为 0
func AvgRecentAttendance(rec *model.StudentRecord) float64 {
	points := rec.DailyAttendance
	if len(points) == 0 {
		return 0
	}
	if len(points) > RecentAttendanceWindow {
		points = points[len(points)-RecentAttendanceWindow:]
	}
	sum := 0.0
	for _, p := range points {
		sum += p.PresentFraction
	}
	return sum / float64(len(points))
}

// LastScore examNumber 最大那场考试的分数，无考试为 0
func LastScore(rec *model.StudentRecord) float64 {
	last, ok := rec.LastExam()
	if !ok {
		return 0
	}
	return last.Score
}

// ScoreRisk 出勤 40% + 成绩 60% 的线性风险分，纯函数
func ScoreRisk(rec *model.StudentRecord) model.RiskAssessment {
	avg := AvgRecentAttendance(rec)
	last := LastScore(rec)
	score := attendanceWeight*(1-avg) + performanceWeight*(1-last/100)

	return model.RiskAssessment{
		AvgAttendance30: avg,
		LastScore:       last,
		RiskScore:       score,
		Tier:            TierForScore(score),
	}
}

func TierForScore(score float64) model.RiskTier {
	switch {
	case score > highRiskThreshold:
		return model.RiskHigh
	case score > mediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// ClassifyLoose 基于原始阈值的宽松分级，仅用于本地兜底的洞察。
// 与 ScoreRisk 是两套独立策略，同一个学生上可能给出不同结论。
func ClassifyLoose(avgAttendance, lastScore float64) model.RiskTier {
	switch {
	case avgAttendance < 0.6 || lastScore < 50:
		return model.RiskHigh
	case avgAttendance < 0.75 || lastScore < 70:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// RankAtRisk 按风险分降序返回风险分 > 0.4 的学生，最多 10 个；同分保持输入顺序
func RankAtRisk(students []*model.StudentRecord) []model.RankedStudent {
	ranked := make([]model.RankedStudent, 0, len(students))
	for _, s := range students {
		risk := ScoreRisk(s)
		if risk.RiskScore > mediumRiskThreshold {
			ranked = append(ranked, model.RankedStudent{Student: s, Risk: risk})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Risk.RiskScore > ranked[j].Risk.RiskScore
	})

	if len(ranked) > AtRiskLimit {
		ranked = ranked[:AtRiskLimit]
	}
	return ranked
}
