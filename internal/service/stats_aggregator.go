package service

import (
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
)

// StatsAggregator 从积分流水重算用户的派生统计。
// 积分总和一律从流水重算而不做原地自增，重试或乱序的加分调用不会造成漂移。
type StatsAggregator struct {
	EventRepo      *repository.PointEventRepository
	StatsRepo      *repository.UserStatsRepository
	EnrollmentRepo *repository.CourseEnrollmentRepository
	AssignmentRepo *repository.ProjectAssignmentRepository
	BadgeRepo      *repository.BadgeRepository

	lookbackDays int
	now          func() time.Time
}

func NewStatsAggregator(
	eventRepo *repository.PointEventRepository,
	statsRepo *repository.UserStatsRepository,
	enrollmentRepo *repository.CourseEnrollmentRepository,
	assignmentRepo *repository.ProjectAssignmentRepository,
	badgeRepo *repository.BadgeRepository,
) *StatsAggregator {
	return &StatsAggregator{
		EventRepo:      eventRepo,
		StatsRepo:      statsRepo,
		EnrollmentRepo: enrollmentRepo,
		AssignmentRepo: assignmentRepo,
		BadgeRepo:      badgeRepo,
		lookbackDays:   util.StreakLookbackDays,
		now:            time.Now,
	}
}

// WithTx 返回绑定到事务的聚合器
func (s *StatsAggregator) WithTx(tx *gorm.DB) *StatsAggregator {
	return &StatsAggregator{
		EventRepo:      s.EventRepo.WithTx(tx),
		StatsRepo:      s.StatsRepo.WithTx(tx),
		EnrollmentRepo: s.EnrollmentRepo.WithTx(tx),
		AssignmentRepo: s.AssignmentRepo.WithTx(tx),
		BadgeRepo:      s.BadgeRepo.WithTx(tx),
		lookbackDays:   s.lookbackDays,
		now:            s.now,
	}
}

// Recompute 重算一个用户的全部统计并落库。
// 周期切换时（存储的月/季与当前不同）对应计数直接取新周期的和，
// 并同步盖上新的周期标记，整行一次写入。
func (s *StatsAggregator) Recompute(userID uint) (*model.UserStats, error) {
	now := s.now().UTC()
	month := int(now.Month())
	quarter := (month-1)/3 + 1
	year := now.Year()

	stats, err := s.StatsRepo.FindOrCreateForUpdate(userID, now)
	if err != nil {
		return nil, err
	}

	total, err := s.EventRepo.SumPoints(userID, "", nil, nil)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(year, now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	monthly, err := s.EventRepo.SumPoints(userID, "", &monthStart, &monthEnd)
	if err != nil {
		return nil, err
	}

	quarterStart := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	quarterEnd := quarterStart.AddDate(0, 3, 0)
	quarterly, err := s.EventRepo.SumPoints(userID, "", &quarterStart, &quarterEnd)
	if err != nil {
		return nil, err
	}

	courses, err := s.EnrollmentRepo.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	projects, err := s.AssignmentRepo.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.BadgeRepo.CountAwarded(userID)
	if err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -s.lookbackDays)
	dates, err := s.EventRepo.DistinctActivityDates(userID, since)
	if err != nil {
		return nil, err
	}
	current, longest := computeStreak(dates, now)

	stats.TotalPoints = total
	stats.MonthlyPoints = monthly
	stats.QuarterlyPoints = quarterly
	stats.CurrentMonth = month
	stats.CurrentQuarter = quarter
	stats.CurrentYear = year
	stats.CoursesCompleted = int(courses)
	stats.ProjectsCompleted = int(projects)
	stats.BadgesEarned = int(badges)
	stats.CurrentStreak = current
	if longest > stats.LongestStreak {
		stats.LongestStreak = longest
	}
	if len(dates) > 0 {
		stats.LastActivityDate = &dates[0]
	} else {
		// 回看窗口内没有事件不代表没有历史活动，最后活跃日要看全量流水
		last, err := s.EventRepo.LastEventTime(userID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
			stats.LastActivityDate = &day
		}
	}
	stats.LastUpdated = now

	if err := s.StatsRepo.Save(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// computeStreak 对按日期倒序的去重活跃日做一次遍历：
// 相邻两天相差恰好一个日历日即延续同一段连续活跃。
// 当前连续天数只有在最近活跃日是今天或昨天时才有效，否则为 0；
// 历史最长的一段仍计入 longest。
func computeStreak(dates []time.Time, now time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	run := 1
	firstRun := 1 // 最近一段连续活跃的长度
	firstRunOpen := true
	for i := 1; i < len(dates); i++ {
		gap := int(dates[i-1].Sub(dates[i]).Hours() / 24)
		if gap == 1 {
			run++
			if firstRunOpen {
				firstRun = run
			}
		} else {
			firstRunOpen = false
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	// 最近一次活跃距今超过一天，当前连续中断
	sinceLast := int(today.Sub(dates[0]).Hours() / 24)
	if sinceLast > 1 {
		return 0, longest
	}
	return firstRun, longest
}
