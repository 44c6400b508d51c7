package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"student_risk_backend/internal/model"
	"student_risk_backend/pkg/logger"
	"student_risk_backend/pkg/monitoring"
	"student_risk_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	recentExamsInPrompt = 3
	fallbackSummaryLen  = 200

	lowAttendanceAlertThreshold  = 0.7
	lowPerformanceAlertThreshold = 60

	GenericFallbackSummary = "AI insight is unavailable right now. This summary is based on recent attendance and the latest exam score."
	AlertLowAttendance     = "Attendance over the recent period is below 70%."
	AlertLowPerformance    = "The latest exam score is below 60."
)

// 宽松分级对应的挂科概率
var looseFailProbability = map[model.RiskTier]int{
	model.RiskHigh:   75,
	model.RiskMedium: 45,
	model.RiskLow:    15,
}

// ChatClient 语言模型调用
type ChatClient interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// InsightService 两级洞察：先请求语言模型，失败或返回无法解析时用本地规则生成
type InsightService struct {
	ai ChatClient
}

func NewInsightService(ai ChatClient) *InsightService {
	return &InsightService{ai: ai}
}

// insightInputs 本地计算的指标，prompt 和兜底共用
type insightInputs struct {
	avgAttendance float64
	lastScore     float64
	forecastAvg   float64
}

func computeInsightInputs(rec *model.StudentRecord, forecastPoints []float64) insightInputs {
	forecast := model.ForecastResult{Points: forecastPoints}
	return insightInputs{
		avgAttendance: AvgRecentAttendance(rec),
		lastScore:     LastScore(rec),
		forecastAvg:   forecast.Average(),
	}
}

// Generate 不返回错误，远端的风险判断原样信任，不在本地重算
func (s *InsightService) Generate(ctx context.Context, rec *model.StudentRecord, forecastPoints []float64) model.Insight {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "insight", attribute.String("student.id", rec.ID))
	defer span.End()

	in := computeInsightInputs(rec, forecastPoints)

	remote := func(ctx context.Context) (model.Insight, error) {
		text, err := s.ai.Chat(ctx, buildInsightPrompt(rec, in))
		if err != nil {
			return model.Insight{}, err
		}
		insight, err := ParseInsight(text)
		if err != nil {
			return model.Insight{}, &RemoteError{Kind: FailureMalformed, Raw: text, Err: err}
		}
		return insight, nil
	}

	fallback := func(err error) model.Insight {
		logger.Log.Warn("Insight generation failed, using local heuristics",
			zap.String("student_id", rec.ID),
			zap.String("failure", string(FailureKindOf(err))),
			zap.Error(err),
		)
		if FailureKindOf(err) == FailureMalformed {
			var raw string
			var re *RemoteError
			if errors.As(err, &re) {
				raw = re.Raw
			}
			return ParseFailureInsight(raw, in.avgAttendance, in.lastScore)
		}
		return NetworkFailureInsight(in.avgAttendance, in.lastScore)
	}

	insight, fellBack, _ := WithFallback(ctx, remote, fallback, AnyFailure)
	span.SetAttributes(attribute.String("insight.source", string(insight.Source)))
	monitoring.ObserveExternalCall("insight", fellBack, started)
	return insight
}

// buildInsightPrompt 构造给语言模型的请求文本
func buildInsightPrompt(rec *model.StudentRecord, in insightInputs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an academic advisor analysing a student's attendance and exam data.\n\n")
	fmt.Fprintf(&b, "Student: %s\n", rec.Name)
	fmt.Fprintf(&b, "Subject: %s\n", rec.Subject)
	fmt.Fprintf(&b, "Recent attendance (last %d days): %.1f%%\n", RecentAttendanceWindow, in.avgAttendance*100)
	fmt.Fprintf(&b, "Last exam score: %.1f\n", in.lastScore)
	fmt.Fprintf(&b, "Forecast average attendance: %.1f%%\n", in.forecastAvg*100)

	exams := rec.ExamScores
	if len(exams) > recentExamsInPrompt {
		exams = exams[len(exams)-recentExamsInPrompt:]
	}
	if len(exams) > 0 {
		b.WriteString("Recent exams:\n")
		for _, e := range exams {
			fmt.Fprintf(&b, "- Exam %d: score %.1f, attendance at exam %.1f%%\n", e.ExamNumber, e.Score, e.AttendanceAtExam)
		}
	}

	b.WriteString("\nRespond with ONLY a JSON object, no prose and no markdown, in exactly this shape:\n")
	b.WriteString(`{"summary": string, "riskLevel": "low"|"medium"|"high", "failProbability": integer 0-100, "alerts": [string], "recommendations": [string]}`)
	return b.String()
}

// StripCodeFences 去掉 ```json / ``` 包裹
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseInsight 解析语言模型的回复。必须是 JSON 对象；recommendations 不是数组时置空
func ParseInsight(text string) (model.Insight, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &fields); err != nil {
		return model.Insight{}, err
	}
	if fields == nil {
		return model.Insight{}, fmt.Errorf("insight is not a JSON object")
	}

	insight := model.Insight{
		Summary:         jsonString(fields["summary"]),
		RiskLevel:       model.RiskTier(jsonString(fields["riskLevel"])),
		FailProbability: jsonInt(fields["failProbability"]),
		Alerts:          jsonStringArray(fields["alerts"]),
		Recommendations: jsonStringArray(fields["recommendations"]),
		Source:          model.InsightRemote,
	}
	return insight, nil
}

func jsonString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func jsonInt(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int(math.Round(f))
}

// jsonStringArray 非数组返回空切片；非字符串元素保留其 JSON 文本
func jsonStringArray(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	return out
}

func looseInsight(summary string, avgAttendance, lastScore float64, source model.InsightSource) model.Insight {
	tier := ClassifyLoose(avgAttendance, lastScore)
	alerts := []string{}
	if avgAttendance < lowAttendanceAlertThreshold {
		alerts = append(alerts, AlertLowAttendance)
	}
	return model.Insight{
		Summary:         summary,
		RiskLevel:       tier,
		FailProbability: looseFailProbability[tier],
		Alerts:          alerts,
		Recommendations: []string{},
		Source:          source,
	}
}

// ParseFailureInsight 远端有回复但无法解析：摘要取原文前 200 个字符
func ParseFailureInsight(raw string, avgAttendance, lastScore float64) model.Insight {
	summary := truncate(strings.TrimSpace(raw), fallbackSummaryLen)
	if summary == "" {
		summary = GenericFallbackSummary
	}
	return looseInsight(summary, avgAttendance, lastScore, model.InsightFallbackParse)
}

// NetworkFailureInsight 远端调用失败：通用摘要，额外检查最近成绩
func NetworkFailureInsight(avgAttendance, lastScore float64) model.Insight {
	insight := looseInsight(GenericFallbackSummary, avgAttendance, lastScore, model.InsightFallbackNetwork)
	if lastScore < lowPerformanceAlertThreshold {
		insight.Alerts = append(insight.Alerts, AlertLowPerformance)
	}
	return insight
}
