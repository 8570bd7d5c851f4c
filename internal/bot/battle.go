package bot

import (
	"fmt"
	"log/slog"

	"github.com/lkarlslund/autolevel/internal/template"
)

// BattleController runs turns: pick the attack slot, confirm, handle the
// kill prompt and wait for the next turn.
type BattleController struct {
	*deps
}

// Actionable reports whether a turn can be taken (Run or Bag visible).
func (b *BattleController) Actionable() bool {
	return b.visible(template.Run) || b.visible(template.Bag)
}

// Engage takes turns for as long as the battle UI comes back after each
// one.
func (b *BattleController) Engage() {
	for b.running() {
		if !b.takeTurn() {
			return
		}
		tuning := b.settings().Tuning
		b.logger.Info("Waiting for next possible action...")
		if !b.waitFor(tuning.ActionWait, b.Actionable) {
			if b.running() {
				b.logger.Info("No next action possible yet")
			}
			return
		}
		b.logger.Info("Can execute next action")
	}
}

// takeTurn performs one attack. It returns false when no attack was made.
func (b *BattleController) takeTurn() bool {
	s := b.settings()

	if b.visible(template.Died) {
		b.logger.Info("Died during battle - leaving it to death recovery")
		return false
	}
	if b.visible(template.Map) {
		b.logger.Info("On map - not executing battle action")
		return false
	}

	if !b.Actionable() {
		b.logger.Info("Cannot execute battle action - waiting for battle UI...")
		handled := false
		ready := b.waitFor(s.Tuning.ActionWait, func() bool {
			if b.HandleChose() {
				handled = true
				return true
			}
			return b.Actionable() && !b.visible(template.Map)
		})
		if handled {
			b.logger.Info("Found and handled chose button")
			return false
		}
		if !ready {
			if b.running() {
				b.logger.Info("Battle UI not found after timeout")
			}
			return false
		}
		b.logger.Info("Battle UI visible - executing action")
	}

	attack := s.Keys.Attacks[b.session.CurrentAttack-1]
	b.logger.Info(fmt.Sprintf("Battle action: pressing %s then %s (Attack %d/%d)", attack, s.Keys.Confirm, b.session.AttackCount+1, s.Tuning.AttackRotation),
		slog.Int("slot", b.session.CurrentAttack))
	if err := b.press(attack); err != nil {
		b.inputFailed("attack not sent", err)
		return false
	}
	if !b.pause(s.Tuning.KeyPause) {
		return false
	}
	if err := b.press(s.Keys.Confirm); err != nil {
		b.inputFailed("attack not confirmed", err)
		return false
	}
	if !b.pause(s.Tuning.KeyPause) {
		return false
	}

	b.ConfirmKill()
	if !b.running() {
		return false
	}

	if b.session.RecordAttack(s.Tuning.AttackRotation) {
		b.logger.Info(fmt.Sprintf("Switching to attack %d for next %d turns", b.session.CurrentAttack, s.Tuning.AttackRotation))
	}
	return true
}

// ConfirmKill presses confirm when the kill prompt is showing. It reports
// whether the key was sent.
func (b *BattleController) ConfirmKill() bool {
	if !b.running() || !b.visible(template.Kill) {
		return false
	}
	b.logger.Info("Kill button found - sending confirm")
	if err := b.press(b.settings().Keys.Confirm); err != nil {
		b.inputFailed("kill not confirmed", err)
		return false
	}
	return true
}

// HandleChose dismisses the chose dialog. It returns true once the dialog
// is gone.
func (b *BattleController) HandleChose() bool {
	_, cleared := b.handleChose()
	return cleared
}

func (b *BattleController) handleChose() (seen, cleared bool) {
	if !b.running() {
		return false, false
	}
	s := b.settings()
	now := b.clock.Now()
	b.session.PruneChose(now, s.Tuning.ChoseWindow)

	if !b.visible(template.Chose) {
		return false, false
	}
	count := b.session.RecordChose(now)
	b.logger.Info(fmt.Sprintf("Chose dialog detected (Total in last %s: %d)", s.Tuning.ChoseWindow, count))

	if count >= s.Tuning.ChoseLimit {
		b.logger.Warn("Chose dialog stuck - using right-click fallback")
		for attempt := 1; attempt <= s.Tuning.ChoseClicks; attempt++ {
			if err := b.keys.RightClickCenter(); err != nil {
				b.logger.Warn(fmt.Sprintf("Fallback attempt %d failed", attempt), slog.Any("error", err))
				if !b.pause(s.Tuning.ChosePause) {
					return true, false
				}
				continue
			}
			if !b.pause(s.Tuning.ChosePause) {
				return true, false
			}
			if !b.visible(template.Chose) {
				b.logger.Info("Fallback successful - dialog cleared")
				b.session.ResetChose()
				return true, true
			}
			b.logger.Warn(fmt.Sprintf("Fallback attempt %d failed - dialog still present", attempt))
			if !b.pause(s.Tuning.ChosePause) {
				return true, false
			}
		}
		b.logger.Error("All fallback attempts failed")
		b.session.ResetChose()
		return true, false
	}

	if err := b.press(s.Keys.Confirm); err != nil {
		b.inputFailed("chose not confirmed", err)
		return true, false
	}
	if !b.pause(s.Tuning.ChosePause) {
		return true, false
	}
	if b.visible(template.Chose) {
		b.logger.Info("Confirm failed - dialog still present")
		return true, false
	}
	b.logger.Info("Confirm successful - dialog cleared")
	return true, true
}

// HandleOverload presses the overload key once when its prompt shows.
func (b *BattleController) HandleOverload() bool {
	if !b.running() || !b.visible(template.Overload) {
		return false
	}
	b.logger.Info("Overload button found - sending overload key")
	if err := b.press(b.settings().Keys.Overload); err != nil {
		b.inputFailed("overload key not sent", err)
		return false
	}
	return true
}
