// Package schedule 计算交易时段内的执行时刻：周一至周五 9:15 起每半小时一次，至 15:00。
package schedule

import "time"

const (
	marketOpen   = 9
	marketClose  = 15
	firstMinute  = 15
	slotInterval = 30
)

// Slots 返回一天内的执行时刻（自零点起的分钟数），升序。
func Slots() []int {
	var slots []int
	for h := marketOpen; h < marketClose; h++ {
		slots = append(slots, h*60+firstMinute, h*60+firstMinute+slotInterval)
	}
	return append(slots, marketClose*60)
}

func isWeekday(t time.Time) bool {
	return t.Weekday() != time.Sunday && t.Weekday() != time.Saturday
}

// Next 返回 now 之后的下一个执行时刻，时区与 now 相同。
func Next(now time.Time) time.Time {
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	minutesSinceMidnight := now.Hour()*60 + now.Minute()
	if isWeekday(now) {
		for _, slotMin := range Slots() {
			if minutesSinceMidnight < slotMin {
				return dayStart.Add(time.Duration(slotMin) * time.Minute)
			}
		}
	}
	return nextWeekdayAt(now, marketOpen, firstMinute)
}

func nextWeekdayAt(from time.Time, hour, min int) time.Time {
	next := from
	for {
		next = next.AddDate(0, 0, 1)
		if isWeekday(next) {
			break
		}
	}
	return time.Date(next.Year(), next.Month(), next.Day(), hour, min, 0, 0, from.Location())
}
