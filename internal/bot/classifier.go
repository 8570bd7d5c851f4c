package bot

import (
	"fmt"

	"github.com/lkarlslund/autolevel/internal/template"
)

// Observation is one classification of the screen.
type Observation struct {
	State State
	// Actionable means Run or Bag is showing, so a turn can be taken.
	Actionable bool
	// Handled means the classifier already reacted to a prompt this tick.
	Handled bool
}

// Classifier maps what is visible to a State, checking categories in a
// fixed priority order. Prompts that only need a key press (kill, chose,
// overload) are answered on the spot.
type Classifier struct {
	*deps
	battle *BattleController
}

func (c *Classifier) Classify() (obs Observation) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Sprintf("Error getting game state: %v", r))
			obs = Observation{State: Error}
		}
	}()

	if c.visible(template.Map) {
		c.session.InBattle = false
		return Observation{State: Map}
	}
	if c.visible(template.Died) {
		return Observation{State: Died}
	}
	if c.battle.Actionable() {
		c.session.InBattle = true
		return Observation{State: Battle, Actionable: true}
	}
	if c.battle.ConfirmKill() {
		c.session.InBattle = true
		return Observation{State: Battle, Handled: true}
	}
	if seen, _ := c.battle.handleChose(); seen {
		c.session.InBattle = true
		return Observation{State: Battle, Handled: true}
	}
	if c.battle.HandleOverload() {
		c.session.InBattle = true
		return Observation{State: Battle, Handled: true}
	}
	if c.session.InBattle {
		c.logger.Debug("Loading battle...")
		return Observation{State: BattleLoading}
	}
	return Observation{State: Loading}
}
