package race

// Verdict is the canonical outcome of a race, computed once by the
// coordinator and broadcast to both participants.
type Verdict struct {
	Draw     bool   `json:"draw"`
	WinnerID string `json:"winner_id,omitempty"`
	LoserID  string `json:"loser_id,omitempty"`
}

// CompareResults orders two results by (wpm desc, accuracy desc, finishedAt
// asc). Returns a negative value when a ranks ahead of b, positive when b
// ranks ahead of a, and zero on an exact tie. This is a strict total order:
// swapping the arguments negates the sign.
func CompareResults(a, b Result) int {
	if a.WPM != b.WPM {
		return b.WPM - a.WPM
	}
	if a.Accuracy != b.Accuracy {
		return b.Accuracy - a.Accuracy
	}
	switch {
	case a.FinishedAt < b.FinishedAt:
		return -1
	case a.FinishedAt > b.FinishedAt:
		return 1
	default:
		return 0
	}
}

// DecideWinner produces the canonical verdict for two finished participants.
func DecideWinner(aID string, a Result, bID string, b Result) Verdict {
	switch cmp := CompareResults(a, b); {
	case cmp < 0:
		return Verdict{WinnerID: aID, LoserID: bID}
	case cmp > 0:
		return Verdict{WinnerID: bID, LoserID: aID}
	default:
		return Verdict{Draw: true}
	}
}
