// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for mediagate: a shared, blocking event loop fed by
// per-connection producers, and a fixed-size worker pool that drives it.
//
// Producers call Dispatch and wait, so events from one connection are handled
// one at a time and in arrival order, while events from different connections
// are spread over whichever worker is free.
package concurrency
