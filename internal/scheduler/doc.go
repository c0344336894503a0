// Package scheduler fires keyed events at wall-clock times. It runs a
// single goroutine over a min-heap of Events sorted by trigger time and
// never sleeps longer than a minute, so clock steps, DST changes and
// system sleep delay an event by at most that long.
//
// Recurring events carry a 5-field cron expression and are re-armed after
// every firing. The daemon uses one such event to re-render at each
// half-hour slot boundary.
package scheduler
