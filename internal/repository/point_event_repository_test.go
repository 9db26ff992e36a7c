package repository

import (
	"testing"
	"time"

	"skillforge_backend/internal/model"
)

func appendEvent(t *testing.T, repo *PointEventRepository, userID uint, points int, pointsType model.PointsType, at time.Time) {
	t.Helper()
	err := repo.Append(&model.PointEvent{
		UserID:       userID,
		PointsType:   pointsType,
		PointsEarned: points,
		CreatedAt:    at,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestSumPointsFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointEventRepository(db)

	sept := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	oct := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)

	appendEvent(t, repo, 1, 100, model.PointsCourseCompletion, sept)
	appendEvent(t, repo, 1, 40, model.PointsManualAward, oct)
	appendEvent(t, repo, 1, -10, model.PointsManualAward, oct.Add(time.Hour))
	appendEvent(t, repo, 2, 999, model.PointsManualAward, oct) // 其他用户不串

	total, err := repo.SumPoints(1, "", nil, nil)
	if err != nil {
		t.Fatalf("sum all: %v", err)
	}
	if total != 130 {
		t.Fatalf("total = %d, want 130", total)
	}

	manual, err := repo.SumPoints(1, model.PointsManualAward, nil, nil)
	if err != nil {
		t.Fatalf("sum by type: %v", err)
	}
	if manual != 30 {
		t.Fatalf("manual = %d, want 30", manual)
	}

	// 时间窗口左闭右开
	octStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	novStart := octStart.AddDate(0, 1, 0)
	october, err := repo.SumPoints(1, "", &octStart, &novStart)
	if err != nil {
		t.Fatalf("sum window: %v", err)
	}
	if october != 30 {
		t.Fatalf("october = %d, want 30", october)
	}
}

func TestSumPointsEmptyLedger(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointEventRepository(db)

	total, err := repo.SumPoints(77, "", nil, nil)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}

func TestDistinctActivityDates(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointEventRepository(db)

	// 同一天多条只算一个活跃日
	appendEvent(t, repo, 1, 10, model.PointsManualAward, time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC))
	appendEvent(t, repo, 1, 10, model.PointsManualAward, time.Date(2026, 9, 15, 20, 0, 0, 0, time.UTC))
	appendEvent(t, repo, 1, 10, model.PointsManualAward, time.Date(2026, 9, 13, 12, 0, 0, 0, time.UTC))
	appendEvent(t, repo, 1, 10, model.PointsManualAward, time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)) // 窗口外

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dates, err := repo.DistinctActivityDates(1, since)
	if err != nil {
		t.Fatalf("distinct dates: %v", err)
	}

	if len(dates) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(dates), dates)
	}
	if !dates[0].Equal(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("dates[0] = %v, want 2026-09-15", dates[0])
	}
	if !dates[1].Equal(time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("dates[1] = %v, want 2026-09-13", dates[1])
	}
}

func TestExistsBySource(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointEventRepository(db)

	sourceID := uint(12)
	err := repo.Append(&model.PointEvent{
		UserID:       1,
		PointsType:   model.PointsCourseCompletion,
		PointsEarned: 150,
		SourceID:     &sourceID,
		SourceType:   "course_enrollment",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	exists, err := repo.ExistsBySource(1, "course_enrollment", 12)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("recorded source not found")
	}

	for _, tc := range []struct {
		userID     uint
		sourceType string
		sourceID   uint
	}{
		{2, "course_enrollment", 12}, // 其他用户
		{1, "badge", 12},             // 其他来源类别
		{1, "course_enrollment", 13}, // 其他来源ID
	} {
		exists, err := repo.ExistsBySource(tc.userID, tc.sourceType, tc.sourceID)
		if err != nil {
			t.Fatalf("exists(%+v): %v", tc, err)
		}
		if exists {
			t.Fatalf("unexpected match for %+v", tc)
		}
	}
}

func TestCreateUnlockDuplicateIsNoError(t *testing.T) {
	db := newTestDB(t)
	repo := NewAchievementRepository(db)

	now := time.Now().UTC()
	if err := repo.CreateUnlock(1, 5, now); err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	// 唯一索引冲突吞掉，保持幂等
	if err := repo.CreateUnlock(1, 5, now); err != nil {
		t.Fatalf("duplicate unlock: %v", err)
	}

	var count int64
	db.Model(&model.UserAchievement{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Fatalf("unlock rows = %d, want 1", count)
	}
}

func TestLastEventTime(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointEventRepository(db)

	last, err := repo.LastEventTime(7)
	if err != nil {
		t.Fatalf("empty ledger: %v", err)
	}
	if last != nil {
		t.Fatalf("last = %v, want nil for empty ledger", last)
	}

	early := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 7, 4, 20, 30, 0, 0, time.UTC)
	appendEvent(t, repo, 7, 10, model.PointsManualAward, late)
	appendEvent(t, repo, 7, 10, model.PointsManualAward, early)
	appendEvent(t, repo, 8, 10, model.PointsManualAward, late.Add(time.Hour)) // 其他用户不串

	last, err = repo.LastEventTime(7)
	if err != nil {
		t.Fatalf("last event time: %v", err)
	}
	if last == nil || !last.Equal(late) {
		t.Fatalf("last = %v, want %v", last, late)
	}
}
