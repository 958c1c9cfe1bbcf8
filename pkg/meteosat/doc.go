// Package meteosat provides the naming scheme and time arithmetic for the
// Dundee Satellite Receiving Station MSG image archive.
//
// This package is pure: it maps hourly timestamps and image variants to the
// archive's remote URL layout and to canonical local file names, walks
// backward through time at hourly granularity, and orders local file names
// chronologically. It performs no I/O.
//
// # Naming
//
// The archive publishes one image per hour per variant under
//
//	{base}/{year}/{month}/{day}/{hour-segment}/{year}_{month}_{day}_{hour-segment}_MSG4_16_{quality}[_grid].jpeg
//
// with unpadded month and day. The hour segment is "0" for midnight and
// "<h>00" (no leading zero) otherwise. Local file names use the same
// component order but zero-pad hours 1-9 to four digits ("0100") so that
// lexical and chronological order agree; see [LocalFileName].
//
// # Walking
//
// [Walk] yields a strictly decreasing hourly sequence of timestamps,
// optionally bounded by an inclusive lower bound. It is restartable: the
// returned sequence can be ranged over any number of times.
//
// # Ordering
//
// [SortKey] maps a local file name back to an orderable integer so a
// directory of downloaded images can be sorted chronologically regardless
// of the mixed zero-padding in the names.
package meteosat
