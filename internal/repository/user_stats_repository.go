package repository

import (
	"errors"
	"time"

	"skillforge_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 排名字段白名单，防止外部输入拼进 ORDER BY
var periodColumns = map[string]string{
	"totalPoints":     "total_points",
	"monthlyPoints":   "monthly_points",
	"quarterlyPoints": "quarterly_points",
}

var ErrUnknownPeriodField = errors.New("unknown period field")

func PeriodColumn(field string) (string, error) {
	col, ok := periodColumns[field]
	if !ok {
		return "", ErrUnknownPeriodField
	}
	return col, nil
}

type UserStatsRepository struct {
	DB *gorm.DB
}

func NewUserStatsRepository(db *gorm.DB) *UserStatsRepository {
	return &UserStatsRepository{DB: db}
}

func (r *UserStatsRepository) WithTx(tx *gorm.DB) *UserStatsRepository {
	return &UserStatsRepository{DB: tx}
}

func (r *UserStatsRepository) FindByUserID(userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.DB.Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// FindOrCreateForUpdate 取出并锁定统计行，不存在时按当前周期懒创建
func (r *UserStatsRepository) FindOrCreateForUpdate(userID uint, now time.Time) (*model.UserStats, error) {
	query := r.DB
	// sqlite 不支持 FOR UPDATE（测试库），MySQL 下才加行锁
	if r.DB.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stats model.UserStats
	err := query.Where("user_id = ?", userID).First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	quarter := (int(now.Month())-1)/3 + 1
	stats = model.UserStats{
		UserID:         userID,
		CurrentMonth:   int(now.Month()),
		CurrentQuarter: quarter,
		CurrentYear:    now.Year(),
		LastUpdated:    now,
	}
	if err := r.DB.Create(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *UserStatsRepository) Save(stats *model.UserStats) error {
	return r.DB.Save(stats).Error
}

// ListOrderedByPeriod 按指定周期字段降序取全部统计行，用于全量重排名
func (r *UserStatsRepository) ListOrderedByPeriod(field string) ([]model.UserStats, error) {
	col, err := PeriodColumn(field)
	if err != nil {
		return nil, err
	}

	var rows []model.UserStats
	err = r.DB.Order(col + " DESC, user_id ASC").Find(&rows).Error
	return rows, err
}

func (r *UserStatsRepository) UpdateRankingPosition(userID uint, position int) error {
	return r.DB.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("ranking_position", position).Error
}

// CountWithGreaterScore 统计周期分数严格大于给定值的用户数，读侧排名用
func (r *UserStatsRepository) CountWithGreaterScore(field string, score int) (int64, error) {
	col, err := PeriodColumn(field)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.DB.Model(&model.UserStats{}).Where(col+" > ?", score).Count(&count).Error
	return count, err
}

// ListTopByPeriod 读侧排行榜查询
func (r *UserStatsRepository) ListTopByPeriod(field string, limit int) ([]model.UserStats, error) {
	col, err := PeriodColumn(field)
	if err != nil {
		return nil, err
	}

	var rows []model.UserStats
	err = r.DB.Order(col + " DESC, user_id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}
