// Package placement computes where each resolved media file lands under the
// output root.
//
// Destinations derive from the item's capture date; items without one go to
// the unsorted directory. The planner queries the output tree lazily and
// never plans an overwrite of differing content.
package placement
