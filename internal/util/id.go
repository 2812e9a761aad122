package util

import (
	"math/rand"
	"strconv"
	"time"
)

// NewTimeID 生成毫秒时间戳加随机 base36 后缀的标识，
// 用于测验、结果和文件分析记录，可近似按生成时间排序
func NewTimeID() string {
	suffix := strconv.FormatInt(rand.Int63n(36*36*36*36*36*36*36), 36)
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + suffix
}
