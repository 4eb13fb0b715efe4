package selection

import (
	"runtime"

	"github.com/go-vgo/robotgo"
)

// KeystrokeCopier synthesises the platform copy shortcut.
type KeystrokeCopier struct{}

func (KeystrokeCopier) Copy() error {
	modifier := "ctrl"
	if runtime.GOOS == "darwin" {
		modifier = "cmd"
	}
	return robotgo.KeyTap("c", modifier)
}
