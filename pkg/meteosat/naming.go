package meteosat

import "fmt"

// sensorTag identifies the instrument/product in every archive file name.
const sensorTag = "MSG4_16"

// RemoteHourSegment is the archive's directory name for an hour: the
// literal "0" at midnight, otherwise the unpadded hour followed by "00"
// (hour 1 -> "100", hour 22 -> "2200"). This must match the upstream
// server exactly.
func RemoteHourSegment(hour int) string {
	if hour == 0 {
		return "0"
	}
	return fmt.Sprintf("%d00", hour)
}

// LocalHourSegment is the hour token used in local file names: "0" at
// midnight, otherwise the hour zero-padded to two digits followed by "00"
// (hour 1 -> "0100", hour 22 -> "2200"). Local names deliberately differ
// from the remote convention so that lexical sort within a day matches
// chronological order.
func LocalHourSegment(hour int) string {
	if hour == 0 {
		return "0"
	}
	return fmt.Sprintf("%02d00", hour)
}

// RemoteLocation returns the pieces of an image's remote address: the
// day-index path relative to the base URL (with trailing slash), the hour
// directory segment, and the file name inside it. Month and day are
// unpadded, as the upstream directory layout demands.
func RemoteLocation(ts Timestamp, v Variant) (dayIndexPath, hourSegment, fileName string) {
	hourSegment = RemoteHourSegment(ts.Hour)
	dayIndexPath = fmt.Sprintf("%d/%d/%d/", ts.Year, ts.Month, ts.Day)
	fileName = fmt.Sprintf("%d_%d_%d_%s_%s_%s.jpeg", ts.Year, ts.Month, ts.Day, hourSegment, sensorTag, v.suffix())
	return dayIndexPath, hourSegment, fileName
}

// RemoteURL assembles the full URL of an image. base must not end with a
// slash.
func RemoteURL(base string, ts Timestamp, v Variant) string {
	dayIndexPath, hourSegment, fileName := RemoteLocation(ts, v)
	return fmt.Sprintf("%s/%s%s/%s", base, dayIndexPath, hourSegment, fileName)
}

// LocalFileName is the canonical on-disk name for an image. It uses the
// same component order as the remote name but the local hour segment, and
// always carries the full timestamp plus variant suffix so distinct
// (timestamp, variant) pairs never map to the same name.
func LocalFileName(ts Timestamp, v Variant) string {
	return fmt.Sprintf("%d_%d_%d_%s_%s_%s.jpeg", ts.Year, ts.Month, ts.Day, LocalHourSegment(ts.Hour), sensorTag, v.suffix())
}

// LocalKey is the archive key for an image: the variant subtree plus the
// canonical file name.
func LocalKey(ts Timestamp, v Variant) string {
	return v.Dir() + "/" + LocalFileName(ts, v)
}
