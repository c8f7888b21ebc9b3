//go:build windows

package idle

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modUser32             = windows.NewLazySystemDLL("user32.dll")
	modKernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procGetLastInputInfo  = modUser32.NewProc("GetLastInputInfo")
	procGetTickCount64    = modKernel32.NewProc("GetTickCount64")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

// osIdleMillis reads GetLastInputInfo, matching original_source's
// idle_elapsed_ms: returns (now_tick - last_input_tick) in milliseconds.
func osIdleMillis() (uint64, bool) {
	var info lastInputInfo
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, _ := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 0, false
	}

	now, _, _ := procGetTickCount64.Call()
	last := uint64(info.dwTime)
	if uint64(now) < last {
		return 0, false
	}
	return uint64(now) - last, true
}
