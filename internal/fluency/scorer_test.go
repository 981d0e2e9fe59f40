package fluency

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speakcoach/internal/transcript"
)

func w(text string, start, end float64) transcript.Word {
	return transcript.NewWord(text, start, end)
}

func seg(words ...transcript.Word) transcript.Segment {
	return transcript.Segment{Words: words}
}

func tr(segments ...transcript.Segment) *transcript.Transcript {
	return &transcript.Transcript{Segments: segments}
}

func TestScoreSingleLongPause(t *testing.T) {
	report, err := Score(tr(seg(
		w("Hi", 0.0, 0.5),
		w("there", 0.6, 1.0),
		w("friend", 3.5, 4.0),
	)), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 1, report.PauseCount)
	assert.Equal(t, []Pause{{WordBefore: "there", WordAfter: "friend", Duration: 2.5}}, report.PauseDetails)
	assert.Equal(t, 2.5, report.TotalPauseDuration)
	assert.Equal(t, 3.8, report.FluencyScore)
	assert.False(t, report.NoTimingData)
}

func TestScoreNoSegments(t *testing.T) {
	for name, in := range map[string]*transcript.Transcript{
		"nil transcript": nil,
		"nil segments":   {},
		"empty segments": {Segments: []transcript.Segment{}},
	} {
		t.Run(name, func(t *testing.T) {
			report, err := Score(in, 1.0)
			require.NoError(t, err)
			assert.Equal(t, 0, report.PauseCount)
			assert.NotNil(t, report.PauseDetails)
			assert.Empty(t, report.PauseDetails)
			assert.Equal(t, 100.0, report.FluencyScore)
			assert.True(t, report.NoTimingData)
			assert.Empty(t, report.Error)
		})
	}
}

func TestScoreSingleWordSegments(t *testing.T) {
	report, err := Score(tr(
		seg(w("one", 0, 0.4)),
		seg(w("two", 9.0, 9.5)),
	), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 0, report.PauseCount)
	assert.Equal(t, 100.0, report.FluencyScore)
	assert.False(t, report.NoTimingData)
}

func TestScoreSegmentWithoutWords(t *testing.T) {
	report, err := Score(tr(transcript.Segment{Text: "untimed"}), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.FluencyScore)
	assert.False(t, report.NoTimingData)
}

func TestScoreThresholdIsStrict(t *testing.T) {
	report, err := Score(tr(seg(
		w("a", 0, 0.1),
		w("b", 0.14, 0.3),
		w("c", 0.5, 0.6),
	)), 0.05)
	require.NoError(t, err)

	require.Equal(t, 1, report.PauseCount)
	assert.Equal(t, "b", report.PauseDetails[0].WordBefore)
	assert.Equal(t, "c", report.PauseDetails[0].WordAfter)
	assert.Equal(t, 0.2, report.PauseDetails[0].Duration)

	report, err = Score(tr(seg(w("a", 0, 1), w("b", 2, 3))), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PauseCount, "a gap equal to the threshold is not long")
}

func TestScoreIgnoresSegmentBoundaries(t *testing.T) {
	words := []transcript.Word{
		w("I", 0, 0.2),
		w("think", 0.3, 0.6),
		w("that", 5.0, 5.2),
		w("works", 5.3, 5.8),
	}

	flat, err := Score(tr(seg(words...)), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, flat.PauseCount)

	split, err := Score(tr(seg(words[:2]...), seg(words[2:]...)), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, split.PauseCount)
	assert.Equal(t, 100.0, split.FluencyScore)
}

func TestScoreAllPausesLong(t *testing.T) {
	report, err := Score(tr(seg(w("a", 0, 1), w("b", 3, 4), w("c", 7, 8))), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PauseCount)
	assert.Equal(t, 0.0, report.FluencyScore)
	assert.Equal(t, 5.0, report.TotalPauseDuration)
}

func TestScoreNegativeGapsAccumulate(t *testing.T) {
	// -1.5 and 2.0 sum to 0.5 of elapsed time against 2.0 of pausing.
	report, err := Score(tr(seg(
		w("a", 0, 2.0),
		w("b", 0.5, 1.0),
		w("c", 3.0, 3.5),
	)), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 1, report.PauseCount)
	assert.Equal(t, 0.0, report.FluencyScore, "score is clamped at zero")
}

func TestScoreNegativeTotalDuration(t *testing.T) {
	report, err := Score(tr(seg(w("a", 0, 5), w("b", 1, 2))), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PauseCount)
	assert.Equal(t, 100.0, report.FluencyScore)
}

func TestScoreNonPositiveThreshold(t *testing.T) {
	report, err := Score(tr(seg(w("a", 0, 1), w("b", 1.01, 2), w("c", 2, 3))), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PauseCount, "zero gaps are never long")
	assert.Equal(t, 0.0, report.FluencyScore)
}

func TestScoreMalformedWord(t *testing.T) {
	end := 1.0
	report, err := Score(tr(
		seg(w("fine", 0, 0.5), w("also", 0.6, 0.9)),
		seg(w("ok", 2, 2.5), transcript.Word{Text: "broken", End: &end}),
	), 1.0)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, transcript.ErrMalformedWord))

	var mwe *transcript.MalformedWordError
	require.True(t, errors.As(err, &mwe))
	assert.Equal(t, 1, mwe.Segment)
	assert.Equal(t, 1, mwe.Index)
	assert.Equal(t, "start", mwe.Field)
}

func TestScoreUntimedSingleWordIsNotInspected(t *testing.T) {
	report, err := Score(tr(seg(transcript.Word{Text: "alone"})), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.FluencyScore)
}

func TestScoreThresholdMonotonic(t *testing.T) {
	in := tr(
		seg(w("a", 0, 0.3), w("b", 0.5, 0.9), w("c", 2.4, 2.8), w("d", 2.9, 3.1)),
		seg(w("e", 5, 5.5), w("f", 8.2, 8.6), w("g", 8.7, 9.0)),
	)

	prev, err := Score(in, 0)
	require.NoError(t, err)
	for _, th := range []float64{0.05, 0.1, 0.2, 0.5, 1, 1.5, 2, 3, 10} {
		cur, err := Score(in, th)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur.PauseCount, prev.PauseCount, "threshold %v", th)
		assert.GreaterOrEqual(t, cur.FluencyScore, prev.FluencyScore, "threshold %v", th)
		prev = cur
	}
}

func TestScoreBounds(t *testing.T) {
	cases := []*transcript.Transcript{
		tr(seg(w("a", 0, 1e9), w("b", 1e12, 1e12+1))),
		tr(seg(w("a", 100, 200), w("b", 0, 1), w("c", 500, 501))),
		tr(seg(w("a", 0, 0), w("b", 0, 0))),
		tr(seg(w("a", 0, 1), w("b", math.MaxFloat64, math.MaxFloat64))),
	}
	for i, in := range cases {
		report, err := Score(in, 1.0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.FluencyScore, 0.0, "case %d", i)
		assert.LessOrEqual(t, report.FluencyScore, 100.0, "case %d", i)
	}
}

func TestScoreRounding(t *testing.T) {
	report, err := Score(tr(seg(
		w("a", 0, 0.1234),
		w("b", 1.5, 1.6),
		w("c", 1.7111, 2.0),
		w("d", 3.3333, 3.5),
	)), 1.0)
	require.NoError(t, err)

	assert.LessOrEqual(t, decimals(report.FluencyScore), 1)
	assert.LessOrEqual(t, decimals(report.TotalPauseDuration), 2)
	for _, p := range report.PauseDetails {
		assert.LessOrEqual(t, decimals(p.Duration), 2)
	}
	assert.Equal(t, 1.38, report.PauseDetails[0].Duration)
	assert.Equal(t, 1.33, report.PauseDetails[1].Duration)
}

func TestScoreRoundsTiesToEven(t *testing.T) {
	report, err := Score(tr(seg(w("a", 0, 1), w("b", 2.125, 3))), 1.0)
	require.NoError(t, err)

	require.Len(t, report.PauseDetails, 1)
	assert.Equal(t, 1.12, report.PauseDetails[0].Duration)
	assert.Equal(t, 1.12, report.TotalPauseDuration)
}

func decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
