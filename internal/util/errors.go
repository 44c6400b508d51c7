package util

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoValidStudents    = errors.New("no valid students found after processing the upload")
	ErrNoCohort           = errors.New("no cohort has been uploaded yet")
	ErrStudentNotFound    = errors.New("student not found in the current cohort")
	ErrAnalysisInFlight   = errors.New("an analysis is already in flight")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyUpload        = errors.New("uploaded file is empty")
)

// MissingColumnsError 上传文件缺少必需的列头
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// IsUploadDefect 结构性上传错误，需要直接反馈给用户
func IsUploadDefect(err error) bool {
	var missing *MissingColumnsError
	return errors.As(err, &missing) || errors.Is(err, ErrNoValidStudents) || errors.Is(err, ErrEmptyUpload)
}
