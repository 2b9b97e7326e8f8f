package simulator

import (
	"math"
	"time"
)

// Pattern shifts a model's feature distributions over time, expressed in
// standard deviations from the training mean.
type Pattern interface {
	Shift() float64
	Name() string
}

var (
	PatternStable Pattern = &StablePattern{}
	PatternDaily  Pattern = &DailyPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "gradual":
		return &GradualPattern{startTime: time.Now()}
	case "sudden":
		return &SuddenPattern{startTime: time.Now()}
	default:
		return PatternStable
	}
}

// StablePattern keeps serving traffic at the training distribution.
type StablePattern struct{}

func (p *StablePattern) Shift() float64 {
	return 0
}

func (p *StablePattern) Name() string {
	return "stable"
}

// DailyPattern oscillates the feature mean over a 24-hour cycle, the way
// traffic mix changes between business hours and night.
type DailyPattern struct{}

func (p *DailyPattern) Shift() float64 {
	hour := float64(time.Now().Hour())
	return 0.5 * math.Sin(2*math.Pi*hour/24)
}

func (p *DailyPattern) Name() string {
	return "daily"
}

// GradualPattern drifts the mean slowly, roughly one standard deviation
// per hour, the typical slow-decay scenario.
type GradualPattern struct {
	startTime time.Time
}

func (p *GradualPattern) Shift() float64 {
	elapsed := time.Since(p.startTime).Hours()
	shift := elapsed
	if shift > 3 {
		shift = 3
	}
	return shift
}

func (p *GradualPattern) Name() string {
	return "gradual"
}

// SuddenPattern jumps two standard deviations after a one-minute grace
// period, simulating an upstream schema or pipeline change.
type SuddenPattern struct {
	startTime time.Time
}

func (p *SuddenPattern) Shift() float64 {
	if time.Since(p.startTime) > time.Minute {
		return 2
	}
	return 0
}

func (p *SuddenPattern) Name() string {
	return "sudden"
}
