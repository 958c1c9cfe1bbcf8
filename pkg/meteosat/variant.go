package meteosat

import "fmt"

// Quality selects one of the three resolutions the archive publishes for
// every image. The archive's own tags are S1 (full), S2 (half) and S4
// (quarter resolution).
type Quality int

const (
	Low    Quality = iota // S4
	Medium                // S2
	High                  // S1
)

// ParseQuality maps the CLI/config spelling to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return 0, fmt.Errorf("meteosat: unknown quality %q (want low, medium or high)", s)
}

// Tag is the archive's file name tag for the quality tier.
func (q Quality) Tag() string {
	switch q {
	case Medium:
		return "S2"
	case High:
		return "S1"
	default:
		return "S4"
	}
}

func (q Quality) String() string {
	switch q {
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "low"
	}
}

// Variant selects which flavor of an image slot to fetch: with or without
// the geographic grid overlay, at one of three quality tiers. A Variant
// fully determines the file name suffix, so files for different variants
// never collide.
type Variant struct {
	Grid    bool
	Quality Quality
}

// gridSuffix is appended to remote and local file names when the grid
// overlay flavor is selected.
const gridSuffix = "_grid"

// suffix is the variant part of a file name: quality tag plus optional
// grid marker, e.g. "S4_grid".
func (v Variant) suffix() string {
	if v.Grid {
		return v.Quality.Tag() + gridSuffix
	}
	return v.Quality.Tag()
}

// Dir is the archive subtree holding this variant's images, e.g.
// "grid/low". Keeping variants in separate subtrees makes the animation
// command's listing a simple prefix scan.
func (v Variant) Dir() string {
	if v.Grid {
		return "grid/" + v.Quality.String()
	}
	return "nogrid/" + v.Quality.String()
}

func (v Variant) String() string {
	if v.Grid {
		return v.Quality.String() + "+grid"
	}
	return v.Quality.String()
}
