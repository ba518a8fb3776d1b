package chunking

import "strings"

// Splitter cuts extracted text into overlapping windows. A window prefers to
// end on a paragraph or sentence boundary so funding rules and fee entries
// stay intact.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	minStep := s.ChunkSize - s.Overlap
	if minStep <= 0 {
		minStep = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/minStep+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + minStep
		}
		start = next
	}
	return out
}

// breakPoint walks back from the window end looking for a boundary. It never
// walks past the window midpoint; a boundary-free wall of text still splits.
func breakPoint(runes []rune, start, end int) int {
	limit := start + (end-start)/2
	for i := end - 1; i > limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', ';':
			return i + 1
		}
	}
	return end
}
