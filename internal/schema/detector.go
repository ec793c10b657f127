package schema

// DefaultDetectionThreshold is the minimum share of signature columns a platform must match.
const DefaultDetectionThreshold = 0.2

// Detection is the outcome of platform detection.
type Detection struct {
	Platform Platform             `json:"platform"`
	Name     string               `json:"platform_name"`
	Score    float64              `json:"confidence"`
	Scores   map[Platform]float64 `json:"scores"`
	Fallback bool                 `json:"fallback_mapping"`
}

// Detector infers the source platform of a dataset from its header.
type Detector struct {
	registry  *Registry
	threshold float64
}

// NewDetector creates a detector; a non-positive threshold uses DefaultDetectionThreshold.
func NewDetector(registry *Registry, threshold float64) *Detector {
	if registry == nil {
		registry = Default()
	}
	if threshold <= 0 {
		threshold = DefaultDetectionThreshold
	}
	return &Detector{registry: registry, threshold: threshold}
}

// Detect scores every platform by the share of its signature present in columns.
// Platforms are visited in priority order and only a strictly higher score replaces the
// current best, so equal scores resolve to the earlier platform.
func (d *Detector) Detect(columns []string) Detection {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		if key := NormalizeKey(col); key != "" {
			present[key] = true
		}
	}

	result := Detection{
		Platform: PlatformUnknown,
		Scores:   make(map[Platform]float64, len(Platforms)),
	}

	best := 0.0
	for _, p := range Platforms {
		sig := d.registry.Signature(p)
		if len(sig) == 0 {
			continue
		}
		matched := 0
		for _, key := range sig {
			if present[key] {
				matched++
			}
		}
		score := float64(matched) / float64(len(sig))
		result.Scores[p] = score
		if score > best {
			best = score
			result.Platform = p
		}
	}

	if best == 0 || best < d.threshold {
		result.Platform = PlatformUnknown
		best = 0
	}
	result.Score = best
	result.Name = result.Platform.DisplayName()
	result.Fallback = result.Platform == PlatformUnknown
	return result
}
