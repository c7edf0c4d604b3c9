// Package scheduler runs the periodic task scans: the due-soon scanner sends
// reminders for tasks entering a user's notification window, and the overdue
// scanner moves past-due tasks to the overdue status and notifies their owner.
//
// A Scheduler owns a cancellable ticker and runs every registered Scanner on
// each tick. Scanners are isolated from each other: an error or panic in one
// is logged and never stops the other or the ticker.
package scheduler
