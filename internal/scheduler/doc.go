// Package scheduler triggers crawl passes on a cron schedule.
//
// A Scheduler optionally runs one pass at startup and then one pass per
// schedule tick until its context is cancelled. At most one pass is active
// per process: a tick that fires while a pass is running is skipped, and a
// manual Trigger during a pass joins the running pass instead of starting
// another.
package scheduler
