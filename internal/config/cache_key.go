package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentExamBackupKey returns the storage key for a student's local answer backup.
func (r *CacheKeyStruct) StudentExamBackupKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:backup", studentID, examID)
}

var CacheKey = NewCacheKeyStruct()
