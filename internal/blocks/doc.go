// Package blocks is a library of reusable blocks for the solver: linear
// transfer functions and the PID, first and second order shapes built on
// them, discrete timers and holds, a clock, and memoryless functions.
//
// Every constructor takes the signals the block reads and writes, so the
// same block type can be instantiated many times in one diagram.
package blocks
