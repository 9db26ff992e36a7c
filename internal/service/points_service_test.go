package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAwardPointsWithMilestoneBonus(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "learner")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	e.createAchievement(t, &model.Achievement{
		Name:            "Century",
		AchievementType: model.AchievementPointsMilestone,
		CriteriaValue:   100,
		PointsReward:    50,
		IsActive:        true,
	})

	courseID := uint(7)
	result, err := e.points.AwardPoints(context.Background(), AwardRequest{
		UserID:      user.ID,
		PointsType:  model.PointsCourseCompletion,
		Points:      150,
		SourceID:    &courseID,
		SourceType:  "course_enrollment",
		Description: "Completed course #7",
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}

	if result.PointsAwarded != 150 {
		t.Fatalf("PointsAwarded = %d, want 150", result.PointsAwarded)
	}
	if len(result.NewAchievements) != 1 || result.NewAchievements[0].Name != "Century" {
		t.Fatalf("NewAchievements = %+v, want one Century unlock", result.NewAchievements)
	}
	// 奖励流水在同一事务里并回总分
	if result.Stats.TotalPoints != 200 {
		t.Fatalf("TotalPoints = %d, want 200", result.Stats.TotalPoints)
	}
	if got := e.ledgerSum(t, user.ID); got != 200 {
		t.Fatalf("ledger sum = %d, want 200", got)
	}

	var bonusCount int64
	e.db.Model(&model.PointEvent{}).
		Where("user_id = ? AND points_type = ?", user.ID, model.PointsAchievementBonus).
		Count(&bonusCount)
	if bonusCount != 1 {
		t.Fatalf("bonus events = %d, want 1", bonusCount)
	}
}

func TestAwardPointsNegativeDeduction(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "penalized")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	// 指标是进程级全局的，只断言本次调用产生的增量
	awardedBefore := testutil.ToFloat64(monitoring.PointsAwarded.WithLabelValues(string(model.PointsManualAward)))
	deductedBefore := testutil.ToFloat64(monitoring.PointsDeducted.WithLabelValues(string(model.PointsManualAward)))

	result, err := e.points.AwardPoints(context.Background(), AwardRequest{
		UserID:     user.ID,
		PointsType: model.PointsManualAward,
		Points:     -40,
	})
	if err != nil {
		t.Fatalf("deduction: %v", err)
	}
	// 扣分可以把总分扣成负数
	if result.Stats.TotalPoints != -40 {
		t.Fatalf("TotalPoints = %d, want -40", result.Stats.TotalPoints)
	}

	// 负增量不能进 Counter，扣分按绝对值记到专门的指标
	if got := testutil.ToFloat64(monitoring.PointsAwarded.WithLabelValues(string(model.PointsManualAward))) - awardedBefore; got != 0 {
		t.Fatalf("PointsAwarded delta = %v, want 0", got)
	}
	if got := testutil.ToFloat64(monitoring.PointsDeducted.WithLabelValues(string(model.PointsManualAward))) - deductedBefore; got != 40 {
		t.Fatalf("PointsDeducted delta = %v, want 40", got)
	}
}

func TestAwardPointsValidation(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "victim")
	ctx := context.Background()

	tests := []struct {
		name    string
		req     AwardRequest
		wantErr error
	}{
		{"missing user", AwardRequest{PointsType: model.PointsManualAward, Points: 10}, util.ErrUserNotFound},
		{"zero points", AwardRequest{UserID: user.ID, PointsType: model.PointsManualAward, Points: 0}, util.ErrInvalidPoints},
		{"over ceiling", AwardRequest{UserID: user.ID, PointsType: model.PointsManualAward, Points: util.MaxPointsPerEvent + 1}, util.ErrInvalidPoints},
		{"under floor", AwardRequest{UserID: user.ID, PointsType: model.PointsManualAward, Points: -util.MaxPointsPerEvent - 1}, util.ErrInvalidPoints},
		{"reserved type", AwardRequest{UserID: user.ID, PointsType: model.PointsAchievementBonus, Points: 10}, util.ErrReservedType},
		{"unknown type", AwardRequest{UserID: user.ID, PointsType: "teleportation", Points: 10}, util.ErrUnknownPointsType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.points.AwardPoints(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// 非法请求不产生流水
	if got := e.ledgerSum(t, user.ID); got != 0 {
		t.Fatalf("ledger sum = %d, want 0", got)
	}
}

func TestAwardPointsSourceDeduplication(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "retrier")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	enrollmentID := uint(12)
	req := AwardRequest{
		UserID:     user.ID,
		PointsType: model.PointsCourseCompletion,
		Points:     150,
		SourceID:   &enrollmentID,
		SourceType: "course_enrollment",
	}
	ctx := context.Background()

	first, err := e.points.AwardPoints(ctx, req)
	if err != nil {
		t.Fatalf("first award: %v", err)
	}
	if first.AlreadyRecorded {
		t.Fatal("first award flagged as duplicate")
	}

	second, err := e.points.AwardPoints(ctx, req)
	if err != nil {
		t.Fatalf("retry award: %v", err)
	}
	if !second.AlreadyRecorded {
		t.Fatal("retry not flagged as duplicate")
	}
	if second.PointsAwarded != 0 {
		t.Fatalf("retry PointsAwarded = %d, want 0", second.PointsAwarded)
	}
	if got := e.ledgerSum(t, user.ID); got != 150 {
		t.Fatalf("ledger sum after retry = %d, want 150", got)
	}
}

func TestAwardPointsInvariantAcrossManyAwards(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "grinder")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	amounts := []int{10, 250, -30, 75, 5}
	ctx := context.Background()

	var last *AwardResult
	for _, amount := range amounts {
		var err error
		last, err = e.points.AwardPoints(ctx, AwardRequest{
			UserID:     user.ID,
			PointsType: model.PointsManualAward,
			Points:     amount,
		})
		if err != nil {
			t.Fatalf("award %d: %v", amount, err)
		}
	}

	// totalPoints 恒等于流水总和
	sum := e.ledgerSum(t, user.ID)
	if last.Stats.TotalPoints != sum {
		t.Fatalf("TotalPoints = %d, ledger sum = %d", last.Stats.TotalPoints, sum)
	}
	if sum != 310 {
		t.Fatalf("ledger sum = %d, want 310", sum)
	}
}

func TestAwardPointsMarksRankingDirty(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "signaller")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	_, err := e.points.AwardPoints(context.Background(), AwardRequest{
		UserID:     user.ID,
		PointsType: model.PointsManualAward,
		Points:     10,
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}

	select {
	case field := <-e.ranking.dirty:
		if field != "totalPoints" {
			t.Fatalf("dirty field = %q, want totalPoints", field)
		}
	default:
		t.Fatal("no ranking dirty signal after award")
	}
}

func TestGetRecentEventsOrder(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "historian")

	base := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e.seedEvent(t, user.ID, 10+i, base.AddDate(0, 0, i))
	}

	events, err := e.points.GetRecentEvents(user.ID, 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].PointsEarned != 14 || events[2].PointsEarned != 12 {
		t.Fatalf("unexpected order: %d, %d, %d",
			events[0].PointsEarned, events[1].PointsEarned, events[2].PointsEarned)
	}
}

func TestGetUserStats(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "stats")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	if _, err := e.points.GetUserStats(user.ID); !errors.Is(err, util.ErrStatsNotFound) {
		t.Fatalf("err = %v, want ErrStatsNotFound before first award", err)
	}

	if _, err := e.points.AwardPoints(context.Background(), AwardRequest{
		UserID:     user.ID,
		PointsType: model.PointsManualAward,
		Points:     25,
	}); err != nil {
		t.Fatalf("award: %v", err)
	}

	stats, err := e.points.GetUserStats(user.ID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalPoints != 25 {
		t.Fatalf("TotalPoints = %d, want 25", stats.TotalPoints)
	}
}

func TestAwardPointsDedupStatsLookup(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "retrier")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	courseID := uint(3)
	req := AwardRequest{
		UserID:     user.ID,
		PointsType: model.PointsCourseCompletion,
		Points:     50,
		SourceID:   &courseID,
		SourceType: "course",
	}
	if _, err := e.points.AwardPoints(ctx, req); err != nil {
		t.Fatalf("first award: %v", err)
	}

	// 统计行缺失时重试仍然幂等成功，只是不带统计快照
	if err := e.db.Exec("DELETE FROM user_stats").Error; err != nil {
		t.Fatalf("delete stats: %v", err)
	}
	result, err := e.points.AwardPoints(ctx, req)
	if err != nil {
		t.Fatalf("retry without stats row: %v", err)
	}
	if !result.AlreadyRecorded || result.Stats != nil {
		t.Fatalf("AlreadyRecorded = %v, Stats = %v", result.AlreadyRecorded, result.Stats)
	}

	// 统计读取的临时故障要向上传播，不能伪装成重复提交
	if err := e.db.Exec("DROP TABLE user_stats").Error; err != nil {
		t.Fatalf("drop stats table: %v", err)
	}
	if _, err := e.points.AwardPoints(ctx, req); err == nil {
		t.Fatal("expected error when stats lookup fails on dedup path")
	}
}
