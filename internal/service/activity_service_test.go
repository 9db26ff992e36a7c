package service

import (
	"context"
	"testing"
	"time"

	"skillforge_backend/internal/model"
)

func TestCompleteCourseAwardsOnce(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "student")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	enrollment := model.CourseEnrollment{UserID: user.ID, CourseID: 7, Status: model.EnrollmentActive, Progress: 60}
	if err := e.db.Create(&enrollment).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	ctx := context.Background()
	first, err := e.activity.CompleteCourse(ctx, user.ID, enrollment.ID)
	if err != nil {
		t.Fatalf("complete course: %v", err)
	}
	if first.PointsAwarded != pointsForCourseCompletion {
		t.Fatalf("PointsAwarded = %d, want %d", first.PointsAwarded, pointsForCourseCompletion)
	}
	if first.Stats.CoursesCompleted != 1 {
		t.Fatalf("CoursesCompleted = %d, want 1", first.Stats.CoursesCompleted)
	}

	// 重复完成同一门课不再记分
	second, err := e.activity.CompleteCourse(ctx, user.ID, enrollment.ID)
	if err != nil {
		t.Fatalf("repeat completion: %v", err)
	}
	if !second.AlreadyRecorded {
		t.Fatal("repeat completion not deduplicated")
	}
	if got := e.ledgerSum(t, user.ID); got != pointsForCourseCompletion {
		t.Fatalf("ledger sum = %d, want %d", got, pointsForCourseCompletion)
	}

	var reloaded model.CourseEnrollment
	if err := e.db.First(&reloaded, enrollment.ID).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if reloaded.Status != model.EnrollmentCompleted || reloaded.Progress != 100 {
		t.Fatalf("enrollment = %s/%d, want completed/100", reloaded.Status, reloaded.Progress)
	}
}

func TestCompleteCourseWrongUser(t *testing.T) {
	e := newTestEngine(t)
	owner := e.createUser(t, "owner")
	other := e.createUser(t, "other")

	enrollment := model.CourseEnrollment{UserID: owner.ID, CourseID: 3}
	if err := e.db.Create(&enrollment).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	if _, err := e.activity.CompleteCourse(context.Background(), other.ID, enrollment.ID); err == nil {
		t.Fatal("completing another user's enrollment succeeded")
	}
}

func TestCompleteProjectAwardsOnce(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "builder")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	assignment := model.ProjectAssignment{UserID: user.ID, ProjectID: 4, Status: model.AssignmentActive}
	if err := e.db.Create(&assignment).Error; err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	ctx := context.Background()
	result, err := e.activity.CompleteProject(ctx, user.ID, assignment.ID)
	if err != nil {
		t.Fatalf("complete project: %v", err)
	}
	if result.Stats.ProjectsCompleted != 1 {
		t.Fatalf("ProjectsCompleted = %d, want 1", result.Stats.ProjectsCompleted)
	}

	retry, err := e.activity.CompleteProject(ctx, user.ID, assignment.ID)
	if err != nil {
		t.Fatalf("repeat completion: %v", err)
	}
	if !retry.AlreadyRecorded {
		t.Fatal("repeat project completion not deduplicated")
	}
}

func TestAwardBadgeCountsInStats(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "decorated")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))

	result, err := e.activity.AwardBadge(context.Background(), user.ID, "Mentor", "star.png")
	if err != nil {
		t.Fatalf("award badge: %v", err)
	}
	if result.Stats.BadgesEarned != 1 {
		t.Fatalf("BadgesEarned = %d, want 1", result.Stats.BadgesEarned)
	}
	if result.Stats.TotalPoints != pointsForBadgeAward {
		t.Fatalf("TotalPoints = %d, want %d", result.Stats.TotalPoints, pointsForBadgeAward)
	}
}

func TestSkillLifecycleAwards(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "polyglot")
	e.setClock(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	added, err := e.activity.AddSkill(ctx, user.ID, SkillRequest{Name: "Go", Category: "backend", Level: 2})
	if err != nil {
		t.Fatalf("add skill: %v", err)
	}
	if added.PointsAwarded != pointsForSkillAdded {
		t.Fatalf("add award = %d, want %d", added.PointsAwarded, pointsForSkillAdded)
	}

	var skill model.UserSkill
	if err := e.db.Where("user_id = ?", user.ID).First(&skill).Error; err != nil {
		t.Fatalf("load skill: %v", err)
	}

	verified, err := e.activity.VerifySkill(ctx, user.ID, skill.ID)
	if err != nil {
		t.Fatalf("verify skill: %v", err)
	}
	if verified.PointsAwarded != pointsForSkillVerified {
		t.Fatalf("verify award = %d, want %d", verified.PointsAwarded, pointsForSkillVerified)
	}

	// 重复验证被去重
	reverified, err := e.activity.VerifySkill(ctx, user.ID, skill.ID)
	if err != nil {
		t.Fatalf("reverify skill: %v", err)
	}
	if !reverified.AlreadyRecorded {
		t.Fatal("repeated verification not deduplicated")
	}

	improved, err := e.activity.ImproveSkill(ctx, user.ID, skill.ID, 4)
	if err != nil {
		t.Fatalf("improve skill: %v", err)
	}
	if improved.PointsAwarded != pointsForSkillImproved {
		t.Fatalf("improve award = %d, want %d", improved.PointsAwarded, pointsForSkillImproved)
	}

	want := pointsForSkillAdded + pointsForSkillVerified + pointsForSkillImproved
	if got := e.ledgerSum(t, user.ID); got != want {
		t.Fatalf("ledger sum = %d, want %d", got, want)
	}
}

func TestImproveSkillDowngradeAwardsNothing(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "regressor")

	skill := model.UserSkill{UserID: user.ID, Name: "SQL", Level: 4}
	if err := e.db.Create(&skill).Error; err != nil {
		t.Fatalf("seed skill: %v", err)
	}

	result, err := e.activity.ImproveSkill(context.Background(), user.ID, skill.ID, 2)
	if err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	if result != nil {
		t.Fatalf("downgrade returned award result %+v", result)
	}

	var reloaded model.UserSkill
	if err := e.db.First(&reloaded, skill.ID).Error; err != nil {
		t.Fatalf("reload skill: %v", err)
	}
	if reloaded.Level != 2 {
		t.Fatalf("level = %d, want 2", reloaded.Level)
	}
	if got := e.ledgerSum(t, user.ID); got != 0 {
		t.Fatalf("ledger sum = %d, want 0", got)
	}
}

func TestImproveSkillRejectsOutOfRangeLevel(t *testing.T) {
	e := newTestEngine(t)
	user := e.createUser(t, "overreacher")

	skill := model.UserSkill{UserID: user.ID, Name: "K8s", Level: 3}
	if err := e.db.Create(&skill).Error; err != nil {
		t.Fatalf("seed skill: %v", err)
	}

	if _, err := e.activity.ImproveSkill(context.Background(), user.ID, skill.ID, 6); err == nil {
		t.Fatal("level 6 accepted")
	}
}
