package winproc

import "golang.org/x/sys/windows"

var (
	USER32    = windows.NewLazySystemDLL("user32.dll")
	GetDC     = USER32.NewProc("GetDC")
	ReleaseDC = USER32.NewProc("ReleaseDC")
	IsIconic  = USER32.NewProc("IsIconic")
)
