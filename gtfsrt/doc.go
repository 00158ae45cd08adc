// Package gtfsrt fetches and decodes GTFS-Realtime protobuf feeds.
//
// The upstream provider groups several line codes behind one feed
// endpoint, so the client precomputes a line -> URL map from the grouped
// endpoint table and shields callers from feed latency with a TTL cache
// and a global minimum spacing between outbound requests.
//
// Travel direction is derived exclusively from trip id markers (".N" for
// uptown, ".S" for downtown); the feed's own direction field is not
// trusted for this domain.
package gtfsrt
