package timer

import (
	"fmt"
	"strings"
	"time"
)

// MarkPoint define data structure of marked point
type MarkPoint struct {
	tag   string
	delta time.Duration
}

// XTimer records marked points since its creation
type XTimer struct {
	bornTime   time.Time
	latestTime time.Time
	points     []*MarkPoint
}

// NewXTimer create new XTimer instance
func NewXTimer() *XTimer {
	now := time.Now()
	return &XTimer{
		bornTime:   now,
		latestTime: now,
	}
}

// Mark mark a point and record the tag of the point with time delta
func (timer *XTimer) Mark(tag string) {
	now := time.Now()
	timer.points = append(timer.points, &MarkPoint{
		tag:   tag,
		delta: now.Sub(timer.latestTime),
	})
	timer.latestTime = now
}

// Elapsed returns the time since the timer was created
func (timer *XTimer) Elapsed() time.Duration {
	return time.Since(timer.bornTime)
}

// Print all record points and timestamp information
func (timer *XTimer) Print() string {
	msg := make([]string, 0, len(timer.points)+1)
	for _, point := range timer.points {
		msg = append(msg, fmt.Sprintf("%s:%.2fms", point.tag, ms(point.delta)))
	}
	msg = append(msg, fmt.Sprintf("total:%.2fms", ms(timer.Elapsed())))
	return strings.Join(msg, ",")
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
