// Package matcher answers the question "which train is the rider on?".
// Given a coordinate and a line code it collects the line's vehicles,
// resolves a position for each, and returns the trains within a search
// radius ordered nearest first.
package matcher
