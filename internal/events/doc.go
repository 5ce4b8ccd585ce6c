// Package events defines the notification events emitted by task
// lifecycle transitions and the emitter that hands them to the
// background dispatch pipeline. Emitting is fire-and-forget from the
// mutating caller's perspective: an emit failure is logged, never
// rolled back into the task mutation that triggered it.
package events
