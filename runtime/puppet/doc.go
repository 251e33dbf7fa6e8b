// Package puppet runs registered programs as cooperatively stepped tasks.
//
// A program is written as if it ran alone: it loops, computes and calls
// Env.Yield whenever it reaches a point where other programs on the same rank
// may run. Each Proceed call hands control to the program until its next
// yield (or its end) and then takes it back; the caller and the program never
// run at the same time. The suspended program is a parked goroutine reachable
// only through the puppet's private channels.
package puppet
