package transcript

import (
	"errors"
	"fmt"
)

// ErrMalformedWord is matched by every *MalformedWordError.
var ErrMalformedWord = errors.New("malformed word")

// Transcript is the output of a speech-to-text call.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is a contiguous span of speech. Words are in chronological order.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Word is a recognized token. Start and End are seconds from the start of
// the audio; nil means the upstream transcriber did not report the field.
type Word struct {
	Text  string   `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// NewWord returns a fully timed word.
func NewWord(text string, start, end float64) Word {
	return Word{Text: text, Start: &start, End: &end}
}

// HasTiming reports whether the transcript carries any segments.
func (t *Transcript) HasTiming() bool {
	return t != nil && len(t.Segments) > 0
}

// Timing returns the word's start and end, or a *MalformedWordError when
// either is missing.
func (w Word) Timing() (start, end float64, err error) {
	switch {
	case w.Start == nil:
		return 0, 0, &MalformedWordError{Word: w.Text, Field: "start"}
	case w.End == nil:
		return 0, 0, &MalformedWordError{Word: w.Text, Field: "end"}
	}
	return *w.Start, *w.End, nil
}

// MalformedWordError reports a word without the timing fields the scorer
// needs.
type MalformedWordError struct {
	Segment int
	Index   int
	Word    string
	Field   string
}

func (e *MalformedWordError) Error() string {
	return fmt.Sprintf("segment %d word %d (%q): missing %s timestamp", e.Segment, e.Index, e.Word, e.Field)
}

func (e *MalformedWordError) Is(target error) bool {
	return target == ErrMalformedWord
}
