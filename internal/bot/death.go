package bot

import "fmt"

// DeathRecovery presses through the revive prompt a bounded number of times
// per death.
type DeathRecovery struct {
	*deps
}

// Attempt runs one revive sequence. Once the retries are used up it logs,
// starts counting from zero again and returns false.
func (d *DeathRecovery) Attempt() bool {
	if !d.running() {
		return false
	}
	s := d.settings()
	d.session.DeathRetries++
	if d.session.DeathRetries > s.Tuning.DeathRetries {
		d.logger.Warn("Max death retries reached")
		d.session.DeathRetries = 0
		return false
	}

	d.logger.Info(fmt.Sprintf("Death recovery attempt %d/%d", d.session.DeathRetries, s.Tuning.DeathRetries))
	if err := d.press(s.Keys.Revive); err != nil {
		d.inputFailed("revive not sent", err)
		return false
	}
	if !d.pause(s.Tuning.DeathPause) {
		return false
	}
	if err := d.press(s.Keys.Confirm); err != nil {
		d.inputFailed("revive not confirmed", err)
		return false
	}
	d.pause(s.Tuning.DeathPause)
	return true
}

func (d *DeathRecovery) Reset() {
	d.session.DeathRetries = 0
}
