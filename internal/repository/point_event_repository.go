package repository

import (
	"errors"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
)

// PointEventRepository 积分流水仓库，只提供追加和查询，不提供修改/删除
type PointEventRepository struct {
	DB *gorm.DB
}

func NewPointEventRepository(db *gorm.DB) *PointEventRepository {
	return &PointEventRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *PointEventRepository) WithTx(tx *gorm.DB) *PointEventRepository {
	return &PointEventRepository{DB: tx}
}

func (r *PointEventRepository) Append(event *model.PointEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.DB.Create(event).Error
}

// SumPoints 求事件积分的带符号和，pointsType 和时间范围可选
func (r *PointEventRepository) SumPoints(userID uint, pointsType model.PointsType, from, to *time.Time) (int, error) {
	query := r.DB.Model(&model.PointEvent{}).Where("user_id = ?", userID)
	if pointsType != "" {
		query = query.Where("points_type = ?", pointsType)
	}
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var total int64
	err := query.Select("COALESCE(SUM(points_earned), 0)").Scan(&total).Error
	return int(total), err
}

func (r *PointEventRepository) ListRecent(userID uint, limit int) ([]model.PointEvent, error) {
	var events []model.PointEvent
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// DistinctActivityDates 返回用户有积分事件的去重日历日（UTC），按最近在前排序
func (r *PointEventRepository) DistinctActivityDates(userID uint, since time.Time) ([]time.Time, error) {
	var raw []string
	err := r.DB.Model(&model.PointEvent{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Distinct("DATE(created_at)").
		Order("DATE(created_at) DESC").
		Pluck("DATE(created_at)", &raw).Error
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		// MySQL 的 DATE 列在 parseTime 下可能带时间后缀
		if len(s) > len(util.DateFormat) {
			s = s[:len(util.DateFormat)]
		}
		d, err := time.ParseInLocation(util.DateFormat, s, time.UTC)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// LastEventTime 用户最近一次积分事件的时间，不限时间范围；没有任何事件时返回 nil
func (r *PointEventRepository) LastEventTime(userID uint) (*time.Time, error) {
	var event model.PointEvent
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := event.CreatedAt.UTC()
	return &t, nil
}

// ExistsBySource 判断同一来源是否已经记过分，用于调用方重试时的幂等保护
func (r *PointEventRepository) ExistsBySource(userID uint, sourceType string, sourceID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.PointEvent{}).
		Where("user_id = ? AND source_type = ? AND source_id = ?", userID, sourceType, sourceID).
		Count(&count).Error
	return count > 0, err
}
