package meteosat

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// SortKey maps a local file name (as produced by LocalFileName, with or
// without a leading directory prefix) to an integer that sorts in strict
// chronological order. The hour token is normalized before comparison so
// that hour 1 ("0100") and hour 10 ("1000") order correctly even in names
// predating the zero-padded convention.
func SortKey(name string) (int64, error) {
	ts, err := ParseLocalName(name)
	if err != nil {
		return 0, err
	}
	// Compose year, month, day and hour into one integer. Distinct valid
	// timestamps always yield distinct keys.
	key := int64(ts.Year)
	key = key*100 + int64(ts.Month)
	key = key*100 + int64(ts.Day)
	key = key*100 + int64(ts.Hour)
	return key, nil
}

// ParseLocalName recovers the timestamp embedded in a local file name.
// Names that do not carry the expected four leading underscore-delimited
// numeric components are rejected.
func ParseLocalName(name string) (Timestamp, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 5)
	if len(parts) < 5 {
		return Timestamp{}, fmt.Errorf("meteosat: file name %q does not match the archive naming scheme", base)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Timestamp{}, fmt.Errorf("meteosat: bad year in %q: %w", base, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Timestamp{}, fmt.Errorf("meteosat: bad month in %q: %w", base, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Timestamp{}, fmt.Errorf("meteosat: bad day in %q: %w", base, err)
	}
	hour, err := ParseHourSegment(parts[3])
	if err != nil {
		return Timestamp{}, fmt.Errorf("meteosat: bad hour in %q: %w", base, err)
	}

	return NewTimestamp(year, month, day, hour)
}

// ParseHourSegment inverts both hour segment encodings: "0" for midnight,
// otherwise an hour followed by "00" in padded ("0100") or unpadded
// ("100") form. Directory-listing segments from the remote archive use
// the unpadded form.
func ParseHourSegment(seg string) (int, error) {
	if seg == "0" {
		return 0, nil
	}
	if len(seg) < 3 || !strings.HasSuffix(seg, "00") {
		return 0, fmt.Errorf("malformed hour segment %q", seg)
	}
	return strconv.Atoi(seg[:len(seg)-2])
}

// SortChronological sorts local file names in place into chronological
// order. All names must have been produced by LocalFileName; a name that
// cannot be parsed is reported as an error and the slice is left in an
// unspecified order.
func SortChronological(names []string) error {
	keys := make(map[string]int64, len(names))
	for _, n := range names {
		k, err := SortKey(n)
		if err != nil {
			return err
		}
		keys[n] = k
	}
	sort.Slice(names, func(i, j int) bool {
		return keys[names[i]] < keys[names[j]]
	})
	return nil
}
