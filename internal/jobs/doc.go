// Package jobs implements background job processing: a persistent job
// queue with a worker pool, crash recovery, and stuck-job detection.
// Notification delivery runs through it so a mutating request never
// waits on SMTP.
package jobs
