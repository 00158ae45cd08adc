// Package trainlocator is the HTTP surface of the train locator service.
// It wires the realtime feed client, static timetable index, trip
// reconciler, and proximity matcher behind a small JSON API.
package trainlocator
