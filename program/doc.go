// Package program provides the built-in programs puppets can run:
// a synthetic simulation, a matching analysis, and the send and receive
// tools that move Name Map variables between groups through an
// inter-group communicator.
package program
