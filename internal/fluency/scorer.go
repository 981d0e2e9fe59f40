// Package fluency detects long pauses in a timed transcript and derives a
// 0-100 fluency score from the share of elapsed time spent in them.
package fluency

import (
	"errors"
	"math"
	"strconv"

	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

// DefaultPauseThreshold is the gap, in seconds, above which a pause counts
// as long when the caller does not choose one.
const DefaultPauseThreshold = 1.0

// Pause is one detected long pause between two adjacent words.
type Pause struct {
	WordBefore string  `json:"word_before"`
	WordAfter  string  `json:"word_after"`
	Duration   float64 `json:"duration"`
}

// Report is the result of scoring one transcript.
type Report struct {
	PauseCount         int     `json:"pause_count"`
	PauseDetails       []Pause `json:"pause_details"`
	FluencyScore       float64 `json:"fluency_score"`
	TotalPauseDuration float64 `json:"total_pause_duration"`

	// NoTimingData is set when the transcript had no segments to measure.
	NoTimingData bool `json:"no_timing_data,omitempty"`
	// Error is set when the transcript could not be produced or scored.
	Error string `json:"error,omitempty"`
}

// Score counts the gaps strictly greater than threshold between adjacent
// words of each segment and scores the transcript.
//
// A transcript without segments scores 100 with NoTimingData set. Pauses are
// never measured across segment boundaries. Every gap, including negative
// gaps from overlapping timestamps, is added to the elapsed total. A
// threshold of zero or less counts every positive gap as long.
//
// Score fails only when a word in an adjacent pair lacks a timestamp; the
// error is a *transcript.MalformedWordError.
func Score(t *transcript.Transcript, threshold float64) (*Report, error) {
	if !t.HasTiming() {
		return &Report{
			PauseDetails: []Pause{},
			FluencyScore: 100,
			NoTimingData: true,
		}, nil
	}

	var (
		totalDuration float64
		totalPause    float64
		pauses        = []Pause{}
	)

	for si, seg := range t.Segments {
		for i := 1; i < len(seg.Words); i++ {
			prev, cur := seg.Words[i-1], seg.Words[i]

			_, prevEnd, err := prev.Timing()
			if err != nil {
				return nil, locate(err, si, i-1)
			}
			curStart, _, err := cur.Timing()
			if err != nil {
				return nil, locate(err, si, i)
			}

			gap := curStart - prevEnd
			totalDuration += gap

			if gap > threshold {
				totalPause += gap
				pauses = append(pauses, Pause{
					WordBefore: prev.Text,
					WordAfter:  cur.Text,
					Duration:   round(gap, 2),
				})
			}
		}
	}

	score := 100.0
	if totalDuration > 0 {
		score = clamp(100-(totalPause/totalDuration*100), 0, 100)
	}

	return &Report{
		PauseCount:         len(pauses),
		PauseDetails:       pauses,
		FluencyScore:       round(score, 1),
		TotalPauseDuration: round(totalPause, 2),
	}, nil
}

func locate(err error, segment, index int) error {
	var mwe *transcript.MalformedWordError
	if errors.As(err, &mwe) {
		mwe.Segment = segment
		mwe.Index = index
	}
	return err
}

// round rounds half to even on the exact binary value of v.
func round(v float64, places int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
