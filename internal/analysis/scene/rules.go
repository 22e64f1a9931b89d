package scene

import "math"

// Signals are the visual and body-proportion statistics averaged over the
// detection window. Ratios, brightness and saturation are in [0,1].
type Signals struct {
	BlueRatio         float64 `json:"blue_ratio"`
	WhiteRatio        float64 `json:"white_ratio"`
	TopBrightness     float64 `json:"top_brightness"`
	BottomBrightness  float64 `json:"bottom_brightness"`
	TopSaturation     float64 `json:"top_saturation"`
	BottomSaturation  float64 `json:"bottom_saturation"`
	TopEdgeDensity    float64 `json:"top_edge_density"`
	BottomEdgeDensity float64 `json:"bottom_edge_density"`
	HorizontalLines   float64 `json:"horizontal_lines"`
	VerticalLines     float64 `json:"vertical_lines"`
	TextureVariance   float64 `json:"texture_variance"`
	Aspect            float64 `json:"aspect"`
	HasPixels         bool    `json:"has_pixels"`

	// Body proportions, valid only when HasBody is set. BodyRatio is the
	// landmark box width/height; ShoulderSpread is shoulder width over the
	// longest box side.
	HasBody        bool    `json:"has_body"`
	BodyRatio      float64 `json:"body_ratio"`
	ShoulderSpread float64 `json:"shoulder_spread"`

	Frames int `json:"frames"`
}

// Rules is the threshold table for the evidence scores.
type Rules struct {
	// Underwater evidence.
	UnderwaterBlueMin       float64 // +2
	UnderwaterWhiteMax      float64 // +1
	UnderwaterBrightnessGap float64 // |top-bottom| at most this: +1
	UnderwaterSaturationMin float64 // mean saturation: +1
	UnderwaterTextureMax    float64 // +1

	// Above-water evidence.
	AboveWhiteMin         float64 // +2
	AboveBrightnessGap    float64 // top brighter than bottom by this: +1
	AboveSaturationGap    float64 // top less saturated than bottom by this: +1
	AboveEdgeGap          float64 // bottom edge density exceeds top by this: +1
	AboveVerticalLinesMin float64 // +1
	AboveTextureMin       float64 // +1
	AboveBlueMax          float64 // blue ratio below this: +1

	// Both scores at least MixedMinScore with a gap at most MixedMaxGap is
	// mixed. Ties go underwater for footage at least TieWideAspect wide.
	MixedMinScore int
	MixedMaxGap   int
	TieWideAspect float64

	// View bands.
	SideBodyRatioMin  float64 // +2 side
	SideSpreadMax     float64 // +1 side
	SideAspectMin     float64 // +1 side
	FrontSpreadMin    float64 // +2 front
	FrontBodyRatioMin float64 // up to SideBodyRatioMin: +1 front
	TopSpreadMin      float64 // with body ratio below TopBodyRatioMax: +2 top
	TopBodyRatioMax   float64
	TopAspectMax      float64 // +1 top

	// Confidence = min(1, ConfidenceBase + ConfidencePerPoint*gap).
	ConfidenceBase     float64
	ConfidencePerPoint float64
}

// DefaultRules returns thresholds tuned on pool footage. They are empirical
// and not expected to hold for open water.
func DefaultRules() Rules {
	return Rules{
		UnderwaterBlueMin:       0.45,
		UnderwaterWhiteMax:      0.05,
		UnderwaterBrightnessGap: 0.08,
		UnderwaterSaturationMin: 0.35,
		UnderwaterTextureMax:    0.01,

		AboveWhiteMin:         0.08,
		AboveBrightnessGap:    0.12,
		AboveSaturationGap:    0.10,
		AboveEdgeGap:          0.05,
		AboveVerticalLinesMin: 2,
		AboveTextureMin:       0.03,
		AboveBlueMax:          0.20,

		MixedMinScore: 4,
		MixedMaxGap:   1,
		TieWideAspect: 1.5,

		SideBodyRatioMin:  1.5,
		SideSpreadMax:     0.25,
		SideAspectMin:     1.5,
		FrontSpreadMin:    0.5,
		FrontBodyRatioMin: 0.8,
		TopSpreadMin:      0.3,
		TopBodyRatioMax:   0.8,
		TopAspectMax:      1.0,

		ConfidenceBase:     0.5,
		ConfidencePerPoint: 0.1,
	}
}

// Decision is the outcome of Classify.
type Decision struct {
	Water           WaterPosition `json:"water_position"`
	WaterConfidence float64       `json:"water_confidence"`
	UnderwaterScore int           `json:"underwater_score"`
	AboveScore      int           `json:"above_score"`

	View           CameraView `json:"camera_view"`
	ViewConfidence float64    `json:"view_confidence"`
	SideScore      int        `json:"side_score"`
	FrontScore     int        `json:"front_score"`
	TopScore       int        `json:"top_score"`
}

// Confidence is the mean of the water and view confidences.
func (d Decision) Confidence() float64 {
	return (d.WaterConfidence + d.ViewConfidence) / 2
}

// Classify scores the signals against the rules. It is a pure function.
// Without pixel statistics the water position is unknown; without body
// proportions the view is unknown.
func Classify(s Signals, r Rules) Decision {
	d := Decision{Water: WaterUnknown}
	if s.HasPixels {
		d.UnderwaterScore, d.AboveScore = waterEvidence(s, r)
		d.Water, d.WaterConfidence = decideWater(d.UnderwaterScore, d.AboveScore, s.Aspect, r)
	}

	if !s.HasBody {
		d.View = ViewUnknown
		return d
	}
	d.SideScore, d.FrontScore, d.TopScore = viewEvidence(s, d.Water, r)
	d.View, d.ViewConfidence = decideView(d.SideScore, d.FrontScore, d.TopScore, r)
	return d
}

func waterEvidence(s Signals, r Rules) (under, above int) {
	if s.BlueRatio >= r.UnderwaterBlueMin {
		under += 2
	}
	if s.WhiteRatio <= r.UnderwaterWhiteMax {
		under++
	}
	if math.Abs(s.TopBrightness-s.BottomBrightness) <= r.UnderwaterBrightnessGap {
		under++
	}
	if (s.TopSaturation+s.BottomSaturation)/2 >= r.UnderwaterSaturationMin {
		under++
	}
	if s.TextureVariance <= r.UnderwaterTextureMax {
		under++
	}

	if s.WhiteRatio >= r.AboveWhiteMin {
		above += 2
	}
	if s.TopBrightness-s.BottomBrightness >= r.AboveBrightnessGap {
		above++
	}
	if s.TopSaturation < s.BottomSaturation-r.AboveSaturationGap {
		above++
	}
	if s.BottomEdgeDensity-s.TopEdgeDensity >= r.AboveEdgeGap {
		above++
	}
	if s.VerticalLines >= r.AboveVerticalLinesMin {
		above++
	}
	if s.TextureVariance >= r.AboveTextureMin {
		above++
	}
	if s.BlueRatio < r.AboveBlueMax {
		above++
	}
	return under, above
}

func decideWater(under, above int, aspect float64, r Rules) (WaterPosition, float64) {
	if under == 0 && above == 0 {
		return WaterUnknown, 0
	}
	gap := under - above
	if gap < 0 {
		gap = -gap
	}
	conf := confidence(gap, r)

	switch {
	case under >= r.MixedMinScore && above >= r.MixedMinScore && gap <= r.MixedMaxGap:
		return WaterMixed, conf
	case under > above:
		return WaterUnderwater, conf
	case above > under:
		return WaterAbove, conf
	case aspect >= r.TieWideAspect:
		return WaterUnderwater, conf
	default:
		return WaterAbove, conf
	}
}

func viewEvidence(s Signals, water WaterPosition, r Rules) (side, front, top int) {
	if s.BodyRatio >= r.SideBodyRatioMin {
		side += 2
	}
	if s.ShoulderSpread < r.SideSpreadMax {
		side++
	}
	if s.Aspect >= r.SideAspectMin {
		side++
	}
	if water == WaterAbove {
		side++
	}

	if s.ShoulderSpread >= r.FrontSpreadMin {
		front += 2
	}
	if s.BodyRatio >= r.FrontBodyRatioMin && s.BodyRatio < r.SideBodyRatioMin {
		front++
	}

	if s.ShoulderSpread >= r.TopSpreadMin && s.BodyRatio < r.TopBodyRatioMax {
		top += 2
	}
	if s.Aspect > 0 && s.Aspect < r.TopAspectMax {
		top++
	}
	return side, front, top
}

func decideView(side, front, top int, r Rules) (CameraView, float64) {
	scores := []struct {
		view  CameraView
		score int
	}{{ViewSide, side}, {ViewFront, front}, {ViewTop, top}}

	best, second := 0, -1
	for i := 1; i < len(scores); i++ {
		if scores[i].score > scores[best].score {
			best = i
		}
	}
	for i := range scores {
		if i != best && (second < 0 || scores[i].score > scores[second].score) {
			second = i
		}
	}
	if scores[best].score == 0 {
		return ViewUnknown, 0
	}
	return scores[best].view, confidence(scores[best].score-scores[second].score, r)
}

func confidence(gap int, r Rules) float64 {
	return min(1, max(0, r.ConfidenceBase+r.ConfidencePerPoint*float64(gap)))
}
