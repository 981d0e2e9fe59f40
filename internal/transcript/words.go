package transcript

// AttachWords distributes a flat, transcript-level word list into segments
// by start time. Whisper-compatible APIs report word timestamps at the top
// level rather than per segment. A word belongs to the last segment whose
// Start is not after the word's start; words before the first segment go to
// the first one. Words without a start timestamp stay with the segment of
// the previous word so the scorer can still report them as malformed.
// Segments that already carry words are left untouched.
func AttachWords(segments []Segment, words []Word) []Segment {
	if len(segments) == 0 || len(words) == 0 {
		return segments
	}
	for _, s := range segments {
		if len(s.Words) > 0 {
			return segments
		}
	}

	out := make([]Segment, len(segments))
	copy(out, segments)

	idx := 0
	for _, w := range words {
		if w.Start != nil {
			for idx+1 < len(out) && out[idx+1].Start <= *w.Start {
				idx++
			}
		}
		out[idx].Words = append(out[idx].Words, w)
	}
	return out
}
