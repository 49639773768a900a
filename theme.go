package chunkstream

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values.
type Theme struct {
	Chunk   int // Streamed text
	Error   int // Fault messages
	Success int // Completed status
	Warning int // Cancelled status
	Muted   int // Status bar, sequence counters
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Chunk:   -1,
		Error:   1,
		Success: 2,
		Warning: 3,
		Muted:   8,
		Accent:  5,
	}
}
