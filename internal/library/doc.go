// Package library is the filesystem view of the card collection: listing,
// reading, and writing per-artist markdown cards. Writes go through a temp
// file and rename, and the first mutation of any card in a run copies the
// original into the backup directory. A flock guards the collection against
// concurrent enhancement runs.
package library
