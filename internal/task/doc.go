// Package task holds the in-memory task list.
//
// Tasks have no stable identity. Users address them by 1-based position in
// the current order, and deleting a task renumbers every task after it. A
// position is only meaningful at the moment it is resolved.
//
// The Store is not safe for concurrent use. It is owned by the command loop;
// other goroutines must copy what they need (see package reminder) or run
// their work on the loop.
package task
