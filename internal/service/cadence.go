package service

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tradehq/backflow/internal/models"
)

// PlanWindow computes the target scheduled datetimes an account should have
// posts at inside [windowStart, windowEnd], from its cadence config. Pure;
// deterministic; no I/O.
//
// Targets are distributed across distinct local dates in the account's
// timezone, at most one per date, so posts_per_week above 7 still yields one
// target per day. Local times cycle through schedule_times. Results are UTC,
// ascending, and clipped to the window.
func PlanWindow(acc *models.ChannelAccount, windowStart, windowEnd time.Time) []time.Time {
	postsPerWeek := acc.PostsPerWeek
	if postsPerWeek <= 0 {
		return nil
	}

	loc := loadLocation(acc.ScheduleTimezone)
	times := acc.ScheduleTimes
	if len(times) == 0 {
		times = []string{models.DefaultScheduleTime}
	}

	localStart := windowStart.In(loc)
	localEnd := windowEnd.In(loc)
	startDate := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, loc)
	endDate := time.Date(localEnd.Year(), localEnd.Month(), localEnd.Day(), 0, 0, 0, 0, loc)

	// Count calendar dates, not elapsed hours; a DST transition inside the
	// window makes one local day 23 or 25 hours long.
	days := dateDiff(startDate, endDate) + 1
	if days <= 0 {
		return nil
	}

	total := postsPerWeek * days / 7
	if total == 0 {
		return nil
	}

	var offsets []int
	if total == 1 {
		offsets = []int{days / 2}
	} else {
		seen := make(map[int]bool)
		for i := 0; i < total; i++ {
			off := int(math.Round(float64(i) * float64(days-1) / float64(total-1)))
			if off < 0 {
				off = 0
			}
			if off > days-1 {
				off = days - 1
			}
			if !seen[off] {
				seen[off] = true
				offsets = append(offsets, off)
			}
		}
	}

	var targets []time.Time
	for i, off := range offsets {
		date := startDate.AddDate(0, 0, off)
		hour, minute := parseClock(times[i%len(times)])
		local := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
		utc := local.UTC()
		if utc.Before(windowStart) || utc.After(windowEnd) {
			continue
		}
		targets = append(targets, utc)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Before(targets[j]) })
	return targets
}

// dateDiff returns the number of calendar dates from a to b, ignoring the
// wall-clock length of the days in between.
func dateDiff(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func loadLocation(name string) *time.Location {
	if name == "" {
		name = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, err = time.LoadLocation(models.DefaultTimezone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

func validClock(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	return err1 == nil && err2 == nil && hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// parseClock parses an "HH:MM" local time, falling back to 09:00 on
// malformed input.
func parseClock(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 9, 0
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 9, 0
	}
	return hour, minute
}
