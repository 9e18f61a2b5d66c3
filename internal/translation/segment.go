package translation

import "unicode/utf16"

// SegmentSize is the largest number of characters sent in one request.
const SegmentSize = 4000

// Segments splits text into consecutive runs of at most size UTF-16 code
// units. Boundaries ignore words but never fall inside a surrogate pair,
// so a segment ending on one is a unit short.
func Segments(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = SegmentSize
	}

	var (
		segments []string
		current  []rune
		units    int
	)
	for _, r := range text {
		n := utf16.RuneLen(r)
		if units > 0 && units+n > size {
			segments = append(segments, string(current))
			current, units = current[:0], 0
		}
		current = append(current, r)
		units += n
	}
	return append(segments, string(current))
}
