package store

import "todoflow/internal/model"

// WorkTimer returns the current timer state.
func (s *Store) WorkTimer() model.WorkTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workTimer
}

// StartWork begins (or resumes) a work interval.
func (s *Store) StartWork() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.workTimer.Status = model.TimerWorking
	s.workTimer.WorkStartTime = &now
	s.workTimer.BreakStartTime = nil
	s.persistLocked()
}

// StartBreak closes the running work interval, banking its seconds, and
// opens a break interval. No-op unless currently working.
func (s *Store) StartBreak() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workTimer.Status != model.TimerWorking || s.workTimer.WorkStartTime == nil {
		return
	}
	now := s.now()
	s.workTimer.TotalWorkTime += int64(now.Sub(*s.workTimer.WorkStartTime).Seconds())
	s.workTimer.Status = model.TimerBreak
	s.workTimer.BreakStartTime = &now
	s.workTimer.WorkStartTime = nil
	s.persistLocked()
}

// EndWork stops the timer, banking whichever interval was open.
func (s *Store) EndWork() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	switch {
	case s.workTimer.Status == model.TimerWorking && s.workTimer.WorkStartTime != nil:
		s.workTimer.TotalWorkTime += int64(now.Sub(*s.workTimer.WorkStartTime).Seconds())
	case s.workTimer.Status == model.TimerBreak && s.workTimer.BreakStartTime != nil:
		s.workTimer.TotalBreakTime += int64(now.Sub(*s.workTimer.BreakStartTime).Seconds())
	}
	s.workTimer.Status = model.TimerStopped
	s.workTimer.WorkStartTime = nil
	s.workTimer.BreakStartTime = nil
	s.persistLocked()
}
