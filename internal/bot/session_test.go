package bot

import (
	"testing"
	"time"
)

func TestRecordAttackRotation(t *testing.T) {
	s := NewSession()
	for i := 1; i <= 4; i++ {
		if s.RecordAttack(5) {
			t.Fatalf("switched after %d attacks", i)
		}
	}
	if !s.RecordAttack(5) {
		t.Fatalf("expected a switch after the fifth attack")
	}
	if s.CurrentAttack != 2 || s.AttackCount != 0 {
		t.Fatalf("after 5 attacks: slot %d count %d", s.CurrentAttack, s.AttackCount)
	}
	for i := 0; i < 5; i++ {
		s.RecordAttack(5)
	}
	if s.CurrentAttack != 1 || s.AttackCount != 0 {
		t.Fatalf("after 10 attacks: slot %d count %d", s.CurrentAttack, s.AttackCount)
	}
}

func TestChoseWindow(t *testing.T) {
	s := NewSession()
	start := time.Unix(1000, 0)
	for i := 0; i < 4; i++ {
		s.RecordChose(start.Add(time.Duration(i) * time.Second))
	}
	s.PruneChose(start.Add(19*time.Second), 20*time.Second)
	if s.ChoseCount() != 4 {
		t.Fatalf("nothing should expire within the window, got %d", s.ChoseCount())
	}
	s.PruneChose(start.Add(21500*time.Millisecond), 20*time.Second)
	if s.ChoseCount() != 2 {
		t.Fatalf("expected the two oldest detections to expire, got %d", s.ChoseCount())
	}
	s.ResetChose()
	if s.ChoseCount() != 0 {
		t.Fatalf("ResetChose left %d", s.ChoseCount())
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.RecordAttack(1)
	s.DeathRetries = 3
	s.InBattle = true
	s.RecordChose(time.Now())
	s.Reset()
	if s.CurrentAttack != 1 || s.AttackCount != 0 || s.DeathRetries != 0 || s.InBattle || s.ChoseCount() != 0 {
		t.Fatalf("Reset left state behind: %+v", s)
	}
}
