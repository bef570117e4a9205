package markdown

import "strings"

// ManagedBlock is a region of a note owned by meetingd, delimited by marker
// comments. Text outside the markers belongs to people editing the note.
type ManagedBlock struct {
	Name string
}

func (b ManagedBlock) start() string {
	return "<!-- meetingd:" + b.Name + ":start -->"
}

func (b ManagedBlock) end() string {
	return "<!-- meetingd:" + b.Name + ":end -->"
}

// Replace swaps the block's content in body, appending the block when absent.
func (b ManagedBlock) Replace(body, generated string) string {
	startMarker, endMarker := b.start(), b.end()
	start := strings.Index(body, startMarker)
	end := strings.Index(body, endMarker)
	block := startMarker + "\n" + strings.TrimRight(generated, "\n") + "\n" + endMarker

	if start >= 0 && end > start {
		end += len(endMarker)
		return body[:start] + block + body[end:]
	}
	if strings.TrimSpace(body) == "" {
		return block + "\n"
	}
	if strings.HasSuffix(body, "\n") {
		return body + "\n" + block + "\n"
	}
	return body + "\n\n" + block + "\n"
}

// Extract returns the block's content and whether the block exists.
func (b ManagedBlock) Extract(body string) (string, bool) {
	startMarker, endMarker := b.start(), b.end()
	start := strings.Index(body, startMarker)
	end := strings.Index(body, endMarker)
	if start < 0 || end <= start {
		return "", false
	}
	return strings.Trim(body[start+len(startMarker):end], "\n"), true
}
