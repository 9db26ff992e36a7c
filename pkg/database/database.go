package database

import (
	"fmt"
	"log"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.PointEvent{},
		&model.UserStats{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.UserSkill{},
		&model.CourseEnrollment{},
		&model.ProjectAssignment{},
		&model.UserBadge{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedAchievements(db)

	return db, nil
}

// seedAchievements 默认成就目录（目录为空时插入）
func seedAchievements(db *gorm.DB) {
	var count int64
	db.Model(&model.Achievement{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.Achievement{
		{Name: "First Steps", Description: "Earn your first 100 points", AchievementType: model.AchievementPointsMilestone, CriteriaValue: 100, PointsReward: 50, IsActive: true},
		{Name: "Point Collector", Description: "Reach 1000 lifetime points", AchievementType: model.AchievementPointsMilestone, CriteriaValue: 1000, PointsReward: 100, IsActive: true},
		{Name: "Point Master", Description: "Reach 5000 lifetime points", AchievementType: model.AchievementPointsMilestone, CriteriaValue: 5000, PointsReward: 250, IsActive: true},
		{Name: "Week Warrior", Description: "Stay active 7 days in a row", AchievementType: model.AchievementStreak, CriteriaValue: 7, PointsReward: 70, IsActive: true},
		{Name: "Unstoppable", Description: "Stay active 30 days in a row", AchievementType: model.AchievementStreak, CriteriaValue: 30, PointsReward: 300, IsActive: true},
		{Name: "Course Graduate", Description: "Complete 5 courses", AchievementType: model.AchievementCourseCount, CriteriaValue: 5, PointsReward: 100, IsActive: true},
		{Name: "Project Finisher", Description: "Complete 3 projects", AchievementType: model.AchievementProjectCount, CriteriaValue: 3, PointsReward: 150, IsActive: true},
		{Name: "Top Ten", Description: "Reach the leaderboard top 10", AchievementType: model.AchievementRanking, CriteriaValue: 10, PointsReward: 200, IsActive: true},
		{Name: "Skill Builder", Description: "Register 10 skills", AchievementType: model.AchievementSkillCount, CriteriaValue: 10, PointsReward: 50, IsActive: true},
		{Name: "Verified Professional", Description: "Get 5 skills verified", AchievementType: model.AchievementVerifiedSkills, CriteriaValue: 5, PointsReward: 100, IsActive: true},
		{Name: "Subject Expert", Description: "Master 3 skills at the highest level", AchievementType: model.AchievementSkillMastery, CriteriaValue: 3, PointsReward: 150, IsActive: true},
	}

	for _, a := range defaults {
		db.Create(&a)
	}
}
