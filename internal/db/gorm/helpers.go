// Package gorm provides GORM-based SQLite persistence for the
// personalized search core: SQM records and the learning index.
package gorm

import "time"

// nowEpoch returns the current time in epoch milliseconds.
func nowEpoch() int64 {
	return time.Now().UnixMilli()
}
