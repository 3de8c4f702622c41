package service

import "errors"

// 调用方可恢复的错误（4xx），其余错误一律视为内部错误
var (
	ErrInvalidGSD    = errors.New("GSD must be a positive number")
	ErrCacheMiss     = errors.New("no cached detections for this image")
	ErrCacheDisabled = errors.New("detection cache is disabled")
)
