package bot

import (
	"reflect"
	"testing"

	"github.com/lkarlslund/autolevel/internal/template"
)

func TestClassifierPriority(t *testing.T) {
	tests := []struct {
		name     string
		visible  []template.Category
		inBattle bool
		want     Observation
		presses  []string
		battle   bool
	}{
		{"map wins over everything", []template.Category{template.Map, template.Died, template.Run, template.Kill}, true, Observation{State: Map}, nil, false},
		{"died before battle", []template.Category{template.Died, template.Run}, false, Observation{State: Died}, nil, false},
		{"run", []template.Category{template.Run}, false, Observation{State: Battle, Actionable: true}, nil, true},
		{"bag", []template.Category{template.Bag, template.Kill}, false, Observation{State: Battle, Actionable: true}, nil, true},
		{"kill presses confirm", []template.Category{template.Kill}, false, Observation{State: Battle, Handled: true}, []string{"press:f"}, true},
		{"chose is handled", []template.Category{template.Chose}, false, Observation{State: Battle, Handled: true}, []string{"press:f"}, true},
		{"overload presses 6", []template.Category{template.Overload}, false, Observation{State: Battle, Handled: true}, []string{"press:6"}, true},
		{"nothing during battle", nil, true, Observation{State: BattleLoading}, nil, true},
		{"nothing", nil, false, Observation{State: Loading}, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kb := newFakeKeyboard()
			d, _ := newTestDeps(newFakeSensor(tc.visible...), kb, newFakeClock())
			d.session.InBattle = tc.inBattle
			c := &Classifier{deps: d, battle: &BattleController{deps: d}}

			got := c.Classify()
			if got != tc.want {
				t.Fatalf("Classify() = %+v, want %+v", got, tc.want)
			}
			if events := kb.events(); !reflect.DeepEqual(events, tc.presses) && !(len(events) == 0 && len(tc.presses) == 0) {
				t.Fatalf("input = %v, want %v", events, tc.presses)
			}
			if d.session.InBattle != tc.battle {
				t.Fatalf("InBattle = %v, want %v", d.session.InBattle, tc.battle)
			}
		})
	}
}

func TestClassifierRecoversPanics(t *testing.T) {
	sensor := newFakeSensor()
	sensor.panicOn = template.Died
	d, _ := newTestDeps(sensor, newFakeKeyboard(), newFakeClock())
	c := &Classifier{deps: d, battle: &BattleController{deps: d}}

	if got := c.Classify(); got.State != Error {
		t.Fatalf("Classify() = %+v, want Error", got)
	}
}
