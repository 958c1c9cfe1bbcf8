// Package archive persists downloaded images.
//
// The archive is a flat tree of image files keyed by variant subtree and
// canonical file name (see pkg/meteosat). Existence of a file is the sole
// record of "already downloaded"; there is no manifest or database.
//
// Storage is accessed through gocloud.dev/blob so tests can run against
// in-memory buckets. Production opens a fileblob bucket rooted at the
// configured save directory, which also gives every key a real local path
// for the wallpaper and animation commands.
package archive
