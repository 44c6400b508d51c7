package model

import "time"

type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

type ForecastMethod string

const (
	ForecastRemote          ForecastMethod = "remote"
	ForecastFallbackAverage ForecastMethod = "fallback_average"
)

// swagger:model
type ForecastResult struct {
	Points []float64      `json:"points"`
	Method ForecastMethod `json:"method"`
	// 远端服务报告的算法名称，仅 remote 时有值
	RemoteMethod string `json:"remoteMethod,omitempty"`
}

// Average 预测点的平均值，空序列为 0
func (f *ForecastResult) Average() float64 {
	if f == nil || len(f.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range f.Points {
		sum += p
	}
	return sum / float64(len(f.Points))
}

// swagger:model
type RiskAssessment struct {
	AvgAttendance30 float64  `json:"avgAttendance30"`
	LastScore       float64  `json:"lastScore"`
	RiskScore       float64  `json:"riskScore"`
	Tier            RiskTier `json:"tier"`
}

// swagger:model
type RankedStudent struct {
	Student *StudentRecord `json:"student"`
	Risk    RiskAssessment `json:"risk"`
}

type InsightSource string

const (
	InsightRemote          InsightSource = "remote"
	InsightFallbackParse   InsightSource = "fallback_parse"
	InsightFallbackNetwork InsightSource = "fallback_network"
)

// swagger:model
type Insight struct {
	Summary         string        `json:"summary"`
	RiskLevel       RiskTier      `json:"riskLevel"`
	FailProbability int           `json:"failProbability"`
	Alerts          []string      `json:"alerts"`
	Recommendations []string      `json:"recommendations"`
	Source          InsightSource `json:"source"`
}

// swagger:model
type SessionSnapshot struct {
	UploadID          string          `json:"uploadId,omitempty"`
	SelectedStudentID string          `json:"selectedStudentId,omitempty"`
	Forecast          *ForecastResult `json:"forecast,omitempty"`
	Insight           *Insight        `json:"insight,omitempty"`
	Risk              *RiskAssessment `json:"risk,omitempty"`
	InFlight          bool            `json:"inFlight"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
