package diagnosis

// Algorithm version for reproducibility tracking
const AlgorithmVersion = "v1.0-deterministic"

// Ranking weights (sum to 1.0)
const (
	WeightCriticality   = 0.40 // How severely the kind degrades tracking
	WeightConfidence    = 0.40 // How sure the signal layer is the issue is real
	WeightActionability = 0.20 // How directly the user can fix it
)

// Overall confidence blend for the report
const (
	OverallWeightConfidence  = 0.70 // Primary issue confidence
	OverallWeightCriticality = 0.30 // Criticality of the primary kind

	// OverallNoFindings is reported when no primary issue exists:
	// nothing found, moderately sure nothing is wrong.
	OverallNoFindings = 0.50
)

// Confidence qualifier bands used by the narrative builder. Checked in
// descending order; the first band the confidence reaches applies.
const (
	BandHigh     = 0.95
	BandGood     = 0.85
	BandModerate = 0.70
)

// NotableSecondaryThreshold is the confidence at which a non-primary issue
// earns a mention in the narrative's closing line.
const NotableSecondaryThreshold = 0.70
