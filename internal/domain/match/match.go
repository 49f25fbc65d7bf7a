package match

// Match is a single similarity hit against a stored record. Not persisted.
type Match struct {
	candidateID string
	filename    string
	score       float64
}

// New creates a match. Score is clamped to [0,1].
func New(candidateID, filename string, score float64) Match {
	return Match{candidateID: candidateID, filename: filename, score: Clamp(score)}
}

// CandidateID returns the identifier of the matched record.
func (m *Match) CandidateID() string { return m.candidateID }

// Filename returns the original filename of the matched record.
func (m *Match) Filename() string { return m.filename }

// Score returns the normalized similarity, 1 meaning identical.
func (m *Match) Score() float64 { return m.score }

// Clamp bounds a similarity score to [0,1].
func Clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Best returns the match with the strictly highest score above threshold.
// Among equal scores the earliest one wins. ok is false when nothing exceeds threshold.
func Best(matches []Match, threshold float64) (best Match, ok bool) {
	for _, m := range matches {
		if m.score <= threshold {
			continue
		}
		if !ok || m.score > best.score {
			best = m
			ok = true
		}
	}
	return best, ok
}
