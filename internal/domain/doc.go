// Package domain defines the core business entities of the task
// management system: users, tasks, and comments, together with the
// validation rules and lifecycle invariants they must satisfy.
package domain
