// Package clock lets usecases and stores take the current time as a
// dependency. Tests pass Fixed instead of the system clock.
package clock
