// Package trips reconciles live vehicle state against trip-update
// predictions and the static schedule to produce one authoritative,
// fully populated view of a trip.
//
// Neither source alone is sufficient: realtime feeds report only a short
// rolling window of upcoming stops, and the static schedule has no live
// position. BuildTrip merges the two, classifying every stop as past,
// current or future relative to the vehicle's position.
package trips
