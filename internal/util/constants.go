package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 出勤日期允许的格式，按顺序尝试
var AttendanceDateLayouts = []string{
	DateFormat,
	"2006/01/02",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	TimeFormat,
}

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 上传文件相关常量
const (
	MimeText        = "text/"
	MimeCSV         = "text/csv"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedUploadExtensions = []string{".csv", ".txt"}
	AllowedUploadMimeTypes  = []string{MimeText, MimeOctetStream}
)
