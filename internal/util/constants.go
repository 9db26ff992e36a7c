package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 积分引擎数值边界
const (
	MaxPointsPerEvent  = 10000 // 单次事件积分绝对值上限
	StreakLookbackDays = 365   // 连续活跃统计回溯窗口
)
