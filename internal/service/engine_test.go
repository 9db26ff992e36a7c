package service

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "engine.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
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
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testEngine struct {
	db *gorm.DB

	events       *repository.PointEventRepository
	stats        *repository.UserStatsRepository
	users        *repository.UserRepository
	achievements *repository.AchievementRepository
	skills       *repository.SkillRepository

	aggregator     *StatsAggregator
	achievementSvc *AchievementService
	ranking        *RankingService
	points         *PointsService
	leaderboard    *LeaderboardService
	activity       *ActivityService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newTestDB(t)

	e := &testEngine{
		db:           db,
		events:       repository.NewPointEventRepository(db),
		stats:        repository.NewUserStatsRepository(db),
		users:        repository.NewUserRepository(db),
		achievements: repository.NewAchievementRepository(db),
		skills:       repository.NewSkillRepository(db),
	}

	e.aggregator = NewStatsAggregator(
		e.events,
		e.stats,
		repository.NewCourseEnrollmentRepository(db),
		repository.NewProjectAssignmentRepository(db),
		repository.NewBadgeRepository(db),
	)
	e.achievementSvc = NewAchievementService(e.achievements, e.events, e.skills)
	e.ranking = NewRankingService(e.stats, db, time.Millisecond)
	e.points = NewPointsService(db, e.events, e.aggregator, e.achievementSvc, e.ranking, "totalPoints")
	e.leaderboard = NewLeaderboardService(e.stats, e.users, e.ranking, e.aggregator, db, nil, time.Second)
	e.activity = NewActivityService(db, e.skills, e.points)
	return e
}

// setClock 固定引擎时钟，周期和连续活跃的断言不受真实日期影响
func (e *testEngine) setClock(now time.Time) {
	e.points.setClock(func() time.Time { return now })
}

func (e *testEngine) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hash",
		Role:     model.Member,
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// seedEvent 直插一条历史流水，时间由调用方指定
func (e *testEngine) seedEvent(t *testing.T, userID uint, points int, at time.Time) {
	t.Helper()
	event := &model.PointEvent{
		UserID:       userID,
		PointsType:   model.PointsManualAward,
		PointsEarned: points,
		Description:  "seed",
		CreatedAt:    at,
	}
	if err := e.events.Append(event); err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func (e *testEngine) createAchievement(t *testing.T, a *model.Achievement) *model.Achievement {
	t.Helper()
	if err := e.achievements.Create(a); err != nil {
		t.Fatalf("create achievement %s: %v", a.Name, err)
	}
	return a
}

func (e *testEngine) ledgerSum(t *testing.T, userID uint) int {
	t.Helper()
	sum, err := e.events.SumPoints(userID, "", nil, nil)
	if err != nil {
		t.Fatalf("sum points: %v", err)
	}
	return sum
}
