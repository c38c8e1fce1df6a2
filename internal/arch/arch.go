// Package arch stands in for Tilck's architecture layer (§6
// "disable_interrupts"/"halt"): the handful of primitives a real kernel
// implements in assembly per-CPU and everything else is built on top of.
// Running as a hosted Go process, there is no CPU to halt, so Halt parks
// the OS thread in a short real sleep instead of busy-spinning — the
// nearest portable analogue available without CGo.
package arch

import (
	"time"

	"golang.org/x/sys/unix"
)

// haltQuantum bounds how long Halt blocks before re-checking for runnable
// work; short enough that a newly-woken task is picked up quickly, long
// enough that the idle task does not spin the host CPU.
const haltQuantum = time.Millisecond

// Halt stands in for the architecture's halt() primitive: on real hardware
// it stops the CPU until the next interrupt. Here it puts the calling OS
// thread to sleep via a real syscall rather than yielding back into the Go
// scheduler's run queue, so an idle core genuinely stops spinning.
func Halt() {
	ts := unix.NsecToTimespec(haltQuantum.Nanoseconds())
	for {
		if err := unix.Nanosleep(&ts, &ts); err != unix.EINTR {
			return
		}
	}
}
