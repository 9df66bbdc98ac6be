package layout

// nRounds is N_ROUNDS, the length of the per-round threshold tables below.
// Without partitioning the trace builder runs nRounds rounds, the last of
// which takes everything that's left; with partitioning it runs one more,
// cold-only round after those.
const nRounds = 5

// branchThresholdPerMille and execThresholdPerMille are the per-round
// probability and successor-frequency/count floors, expressed in per-mille
// of PROB_BASE and of the entry block's frequency/count respectively. Both
// must be reproduced exactly: they come straight from the tuning-constants
// table, not derived.
var branchThresholdPerMille = [nRounds]int32{400, 200, 100, 0, 0}

var execThresholdPerMille = [nRounds]int32{500, 200, 50, 0, 0}

// duplicationThresholdPerMille is DUPLICATION_THRESHOLD, reused by the
// connector's codeMayGrow gate.
const duplicationThresholdPerMille = 100

// loopRotationNumerator/loopRotationDenominator express the "at least 4
// iterations" cutoff edge_freq > 4/5 * dest.freq as an integer ratio, so the
// comparison in findTraces1Round avoids floating point.
const (
	loopRotationNumerator   = 4
	loopRotationDenominator = 5
)
