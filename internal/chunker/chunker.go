package chunker

import "strings"

// DefaultWindowLines is the window size used when none is configured.
const DefaultWindowLines = 60

// Chunk is one line window of a corpus file.
type Chunk struct {
	Content   string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
}

// Chunker cuts text into consecutive line windows.
type Chunker struct {
	windowLines int
}

// New creates a Chunker with the given window size in lines.
func New(windowLines int) *Chunker {
	if windowLines <= 0 {
		windowLines = DefaultWindowLines
	}
	return &Chunker{windowLines: windowLines}
}

// WindowLines returns the configured window size.
func (c *Chunker) WindowLines() int {
	return c.windowLines
}

// ChunkText splits content into line windows. Trailing newlines do not
// produce a phantom line, and windows that hold only blank lines are dropped.
func (c *Chunker) ChunkText(content string) []Chunk {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	// A file ending in a newline splits into one extra empty element.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(lines)+c.windowLines-1)/c.windowLines)
	for start := 0; start < len(lines); start += c.windowLines {
		end := start + c.windowLines
		if end > len(lines) {
			end = len(lines)
		}
		window := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(window) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:   window,
			StartLine: start + 1,
			EndLine:   end,
		})
	}
	return chunks
}
