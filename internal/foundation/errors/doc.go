// Package errors provides the classified error type used across tgbot.
//
// Every failure that reaches the CLI is expected to be a ClassifiedError so the
// command layer can pick an exit code and a user-facing message without string
// matching. Errors are built with a small fluent builder:
//
//	err := errors.FileSystemError("create directory").
//		WithContext("path", dir).
//		WithCause(osErr).
//		Build()
package errors
