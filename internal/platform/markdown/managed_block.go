package markdown

import "strings"

// Block is a generated region of a note delimited by HTML comment markers.
// Everything outside the markers belongs to the user.
type Block struct {
	Start string
	End   string
}

func NewBlock(name string) Block {
	return Block{
		Start: "<!-- studytrack:" + name + ":start -->",
		End:   "<!-- studytrack:" + name + ":end -->",
	}
}

func (b Block) Replace(body, generated string) string {
	rendered := b.Start + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.End

	start := strings.Index(body, b.Start)
	if start >= 0 {
		if end := strings.Index(body[start:], b.End); end >= 0 {
			end += start + len(b.End)
			return body[:start] + rendered + body[end:]
		}
	}

	switch {
	case strings.TrimSpace(body) == "":
		return rendered + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + rendered + "\n"
	default:
		return body + "\n\n" + rendered + "\n"
	}
}

// Extract returns the content between the markers, if present.
func (b Block) Extract(body string) (string, bool) {
	start := strings.Index(body, b.Start)
	if start < 0 {
		return "", false
	}
	rest := body[start+len(b.Start):]
	end := strings.Index(rest, b.End)
	if end < 0 {
		return "", false
	}
	return strings.Trim(rest[:end], "\n"), true
}
