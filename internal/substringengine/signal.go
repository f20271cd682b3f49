package substringengine

import "os"

// interruptSignal is the signal sent to a spawned substring-engine process
// before the kill grace elapses. os.Interrupt is the portable choice here —
// unlike syscall.SIGTERM it is defined on every GOOS Go supports.
func interruptSignal() os.Signal {
	return os.Interrupt
}
