package domain

import "time"

// ResolveStatus computes the user-facing status of a quiz. The first matching rule wins:
// attempted, stored live flag, past end time (missed), inside the window (live), upcoming.
func ResolveStatus(quiz QuizDefinition, attempted map[string]struct{}, now time.Time) QuizStatus {
	if _, ok := attempted[quiz.ID]; ok {
		return StatusAttempted
	}
	if quiz.Status == LifecycleLive {
		return StatusLive
	}
	end := quiz.EndTime()
	if now.After(end) {
		return StatusMissed
	}
	if !now.Before(quiz.StartTime) {
		return StatusLive
	}
	return StatusUpcoming
}
