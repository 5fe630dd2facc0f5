package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the planner's background jobs: the periodic
// recurring-task scan, trash purge, and the daily digest.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a named job firing every day at the given
// HH:MM wall-clock time.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.Printf("[info] scheduled %s daily at %s", name, timeStr)
	return s.cron.AddFunc(spec, guarded(name, job))
}

// ScheduleInterval registers a named job firing every interval.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("schedule %s: interval must be at least a second", name)
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	log.Printf("[info] scheduled %s every %s", name, interval)
	return s.cron.AddFunc(spec, guarded(name, job))
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// guarded keeps a panicking job from taking the process down; cron runs
// each invocation on its own goroutine.
func guarded(name string, job func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("job %s panicked: %v", name, r)
			}
		}()
		job()
	}
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// spec layout: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
