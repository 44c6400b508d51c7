package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"student_risk_backend/internal/model"
	"student_risk_backend/internal/util"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows 把 CSV 文本解析成 RawRow；第一行为列头，列名统一为小写去空白
func ReadRows(content []byte) ([]string, []model.RawRow, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil, util.ErrEmptyUpload
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, util.ErrEmptyUpload
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []model.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make(model.RawRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// MissingColumns 返回缺失的必需列头
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range model.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
