package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideWinner(t *testing.T) {
	tests := []struct {
		name string
		a, b Result
		want Verdict
	}{
		{
			name: "higher wpm wins",
			a:    Result{WPM: 90, Accuracy: 80, FinishedAt: 2000},
			b:    Result{WPM: 80, Accuracy: 99, FinishedAt: 1000},
			want: Verdict{WinnerID: "a", LoserID: "b"},
		},
		{
			name: "accuracy breaks wpm tie",
			a:    Result{WPM: 80, Accuracy: 90, FinishedAt: 1000},
			b:    Result{WPM: 80, Accuracy: 95, FinishedAt: 2000},
			want: Verdict{WinnerID: "b", LoserID: "a"},
		},
		{
			name: "earlier finish breaks full tie",
			a:    Result{WPM: 80, Accuracy: 95, FinishedAt: 1500},
			b:    Result{WPM: 80, Accuracy: 95, FinishedAt: 1000},
			want: Verdict{WinnerID: "b", LoserID: "a"},
		},
		{
			name: "exact tie is a draw",
			a:    Result{WPM: 80, Accuracy: 95, FinishedAt: 1000},
			b:    Result{WPM: 80, Accuracy: 95, FinishedAt: 1000},
			want: Verdict{Draw: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideWinner("a", tt.a, "b", tt.b))
		})
	}
}

func TestVerdictSymmetry(t *testing.T) {
	results := []Result{
		{WPM: 80, Accuracy: 95, FinishedAt: 1000},
		{WPM: 80, Accuracy: 95, FinishedAt: 1001},
		{WPM: 80, Accuracy: 90, FinishedAt: 500},
		{WPM: 120, Accuracy: 70, FinishedAt: 900},
		{WPM: 80, Accuracy: 95, FinishedAt: 1000},
	}
	for i, a := range results {
		for j, b := range results {
			forward := DecideWinner("a", a, "b", b)
			reverse := DecideWinner("a", b, "b", a)
			if forward.Draw {
				assert.True(t, reverse.Draw, "draw must survive swapping (%d,%d)", i, j)
				continue
			}
			// Swapping the tuples swaps the roles.
			if forward.WinnerID == "a" {
				assert.Equal(t, "b", reverse.WinnerID)
			} else {
				assert.Equal(t, "a", reverse.WinnerID)
			}
		}
	}
}

func TestCompareResultsAntisymmetric(t *testing.T) {
	a := Result{WPM: 80, Accuracy: 95, FinishedAt: 1000}
	b := Result{WPM: 80, Accuracy: 94, FinishedAt: 900}
	assert.Negative(t, CompareResults(a, b))
	assert.Positive(t, CompareResults(b, a))
	assert.Zero(t, CompareResults(a, a))
}
