package bot

type State int

const (
	Unknown State = iota
	Map
	Battle
	BattleLoading
	Died
	Loading
	Error
)

var stateNames = [...]string{
	Unknown:       "unknown",
	Map:           "map",
	Battle:        "battle",
	BattleLoading: "battle_loading",
	Died:          "died",
	Loading:       "loading",
	Error:         "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// describe is the status line logged when the loop enters s.
func (s State) describe() string {
	switch s {
	case Map:
		return "On map"
	case Battle:
		return "In battle"
	case BattleLoading:
		return "Loading battle action..."
	case Died:
		return "Died - attempting revival"
	case Loading:
		return "Loading..."
	case Error:
		return "Error while reading the screen"
	}
	return "Status unknown"
}
