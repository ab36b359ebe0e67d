// Package detect holds the detection result model shared by the extraction
// pipeline, the inference strategies, and the scoring service.
package detect

// Method identifies how the final IP was obtained.
type Method string

const (
	// MethodDirect: the order carried a directly-asserted customer IP.
	MethodDirect Method = "shopify_direct"
	// MethodAlternative: behavioral or temporal correlation produced the IP.
	MethodAlternative Method = "alternative_capture"
	// MethodGeolocation: the IP was derived from the order's address region.
	MethodGeolocation Method = "reverse_geolocation"
	// MethodFallback: last-resort inference, explicitly low-trust.
	MethodFallback Method = "intelligent_fallback"
	// MethodNone: no attempt produced a usable IP.
	MethodNone Method = "none"
)

// Recommendation is the trust tier assigned to a detection result.
type Recommendation string

const (
	RecommendationHigh           Recommendation = "high_confidence"
	RecommendationModerate       Recommendation = "moderate_confidence"
	RecommendationLow            Recommendation = "low_confidence"
	RecommendationCaution        Recommendation = "use_with_caution"
	RecommendationExtremeCaution Recommendation = "use_with_extreme_caution"
	RecommendationAvoid          Recommendation = "avoid"
	RecommendationNoIP           Recommendation = "no_ip_available"
)

// RecommendationFor maps a confidence score to its trust tier.
func RecommendationFor(confidence float64) Recommendation {
	switch {
	case confidence >= 0.8:
		return RecommendationHigh
	case confidence >= 0.6:
		return RecommendationModerate
	case confidence >= 0.4:
		return RecommendationLow
	case confidence >= 0.2:
		return RecommendationCaution
	default:
		return RecommendationAvoid
	}
}

// Candidate is one extraction or inference attempt. Candidates live only for
// the duration of a single detection run.
type Candidate struct {
	IP         string  `json:"ip"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Suspicious bool    `json:"is_suspicious"`
	Method     Method  `json:"method,omitempty"`
	Detail     string  `json:"detail,omitempty"`
}

// Result is the composite outcome of a detection run.
// Invariant: FinalConfidence equals the maximum confidence among attempts
// with a non-empty IP; when no attempt qualifies, FinalIP is empty, Method is
// MethodNone, and Recommendation is RecommendationNoIP.
type Result struct {
	FinalIP         string         `json:"final_ip"`
	FinalConfidence float64        `json:"final_confidence"`
	Method          Method         `json:"method_used"`
	Attempts        []Candidate    `json:"all_attempts"`
	Recommendation  Recommendation `json:"recommendation"`
}

// Usable reports whether the result carries an IP the caller may act on at
// all, however low the tier.
func (r Result) Usable() bool {
	return r.FinalIP != "" && r.Method != MethodNone
}
