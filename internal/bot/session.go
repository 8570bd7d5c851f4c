package bot

import "time"

// Session is the mutable battle bookkeeping of one run. Only the worker
// goroutine touches it.
type Session struct {
	CurrentAttack int
	AttackCount   int
	DeathRetries  int
	InBattle      bool

	choseSeen []time.Time
}

func NewSession() *Session {
	return &Session{CurrentAttack: 1}
}

func (s *Session) Reset() {
	*s = Session{CurrentAttack: 1}
}

// RecordAttack counts a used attack and switches between the two attack
// slots every rotation uses. It reports whether the slot switched.
func (s *Session) RecordAttack(rotation int) bool {
	s.AttackCount++
	if s.AttackCount < rotation {
		return false
	}
	s.AttackCount = 0
	if s.CurrentAttack == 1 {
		s.CurrentAttack = 2
	} else {
		s.CurrentAttack = 1
	}
	return true
}

// PruneChose forgets chose detections older than window.
func (s *Session) PruneChose(now time.Time, window time.Duration) {
	kept := s.choseSeen[:0]
	for _, t := range s.choseSeen {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	s.choseSeen = kept
}

// RecordChose adds a detection and returns how many are inside the window.
func (s *Session) RecordChose(now time.Time) int {
	s.choseSeen = append(s.choseSeen, now)
	return len(s.choseSeen)
}

func (s *Session) ChoseCount() int {
	return len(s.choseSeen)
}

func (s *Session) ResetChose() {
	s.choseSeen = nil
}
