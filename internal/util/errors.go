package util

import "errors"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrInvalidPoints     = errors.New("points amount missing or out of range")
	ErrUnknownPointsType = errors.New("unknown points type")
	ErrReservedType      = errors.New("points type is reserved for the engine")
	ErrStatsNotFound     = errors.New("user stats not found")
	ErrUnknownPeriod     = errors.New("unknown leaderboard period")
)
