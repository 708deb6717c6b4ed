package model

// DateFormat 是日志记录逻辑日期（logical day）的格式。
// 按日筛选时做精确字符串匹配，与记录的创建时间戳无关。
const DateFormat = "2006-01-02"
