// Package service implements the application's business operations:
// the task lifecycle manager, which owns every task state transition
// and the permission checks guarding them, and the dashboard
// aggregator. External callers never mutate tasks except through the
// lifecycle manager.
package service
