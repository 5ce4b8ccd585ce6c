// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout
// the application, so individual test files do not each define their own.
// Every mock follows the same pattern: function fields override behavior per
// method, and an in-memory default implementation backs methods whose
// function field is nil.
package mocks
