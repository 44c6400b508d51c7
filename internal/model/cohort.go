package model

// CohortUpload 一次 CSV 上传的记录
type CohortUpload struct {
	UUIDBase
	Filename          string `gorm:"size:255" json:"filename"`
	ArchiveURL        string `gorm:"size:512" json:"archiveUrl"`
	TotalRows         int    `json:"totalRows"`
	SkippedRows       int    `json:"skippedRows"`
	DroppedAttendance int    `json:"droppedAttendance"`
	DroppedExams      int    `json:"droppedExams"`
	StudentCount      int    `json:"studentCount"`
	AtRiskCount       int    `json:"atRiskCount"`
}

func (CohortUpload) TableName() string {
	return "cohort_uploads"
}

// StudentRiskSnapshot 上传时每个学生的风险快照
type StudentRiskSnapshot struct {
	BaseModel
	UploadID        string   `gorm:"type:varchar(36);index" json:"uploadId"`
	StudentID       string   `gorm:"size:100;index" json:"studentId"`
	StudentName     string   `gorm:"size:255" json:"studentName"`
	Subject         string   `gorm:"size:100" json:"subject"`
	AttendanceDays  int      `json:"attendanceDays"`
	ExamCount       int      `json:"examCount"`
	AvgAttendance30 float64  `json:"avgAttendance30"`
	LastScore       float64  `json:"lastScore"`
	RiskScore       float64  `json:"riskScore"`
	Tier            RiskTier `gorm:"size:16" json:"tier"`
}

func (StudentRiskSnapshot) TableName() string {
	return "student_risk_snapshots"
}
