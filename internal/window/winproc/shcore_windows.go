package winproc

import (
	"sync"

	"golang.org/x/sys/windows"
)

var (
	SHCORE                 = windows.NewLazySystemDLL("shcore.dll")
	SetProcessDpiAwareness = SHCORE.NewProc("SetProcessDpiAwareness")
)

const processPerMonitorDPIAware = 2

var dpiOnce sync.Once

// EnableDPIAwareness makes client rectangles and captures use physical
// pixels on scaled displays. Safe to call more than once.
func EnableDPIAwareness() {
	dpiOnce.Do(func() {
		if SetProcessDpiAwareness.Find() != nil {
			return
		}
		SetProcessDpiAwareness.Call(processPerMonitorDPIAware)
	})
}
