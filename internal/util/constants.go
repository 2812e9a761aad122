package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

var (
	// AllowedUploadExtensions 允许上传分析的文件扩展名
	AllowedUploadExtensions = []string{
		".txt", ".md", ".csv",
		".pdf", ".doc", ".docx",
		".ppt", ".pptx",
		".jpg", ".jpeg", ".png", ".gif", ".webp",
	}

	// AllowedUploadMimeTypes 允许的 MIME 类型（前缀或完整类型）
	AllowedUploadMimeTypes = []string{
		"text/plain", "text/markdown", "text/csv",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		// docx/pptx 是 zip 容器，内容嗅探会报 application/zip
		"application/zip",
		"image/",
		"application/octet-stream",
	}
)
