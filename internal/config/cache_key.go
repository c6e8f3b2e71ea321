package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a learner's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// ExamPayloadKey returns the cache key for an exam's learner-facing paper.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamQuestionIDsKey returns the cache key for an exam's ordered question ids.
func (r *CacheKeyStruct) ExamQuestionIDsKey(examID string) string {
	return fmt.Sprintf("exam:%s:question_ids", examID)
}

var CacheKey = NewCacheKeyStruct()
