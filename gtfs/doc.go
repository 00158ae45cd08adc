/*
Package gtfs loads a static GTFS dataset into an in-memory index.

The index is built once at startup from a local GTFS zip archive or an
unzipped directory and answers the lookups the rest of the system needs:
stops by id, routes by id or short name, ordered stop-time sequences per
trip, and per-direction stop sequences per route.

Parse once and keep the index in memory; GTFS is static data and the
index is cheap to query.
*/
package gtfs
