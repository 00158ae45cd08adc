// Package utils provides small shared helpers for the train locator:
// great-circle distance math and time formatting.
package utils
