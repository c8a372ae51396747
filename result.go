package streamgen

import "strings"

// splitCodeAndExplanation separates a combined answer into the contents
// of the first fenced code block and the prose around it. When the text
// carries no complete fenced block both results are empty and the caller
// should treat the full text as a single combined answer.
func splitCodeAndExplanation(text string) (code, explanation string) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", ""
	}
	rest := text[start+3:]
	// the fence line may name a language; the block starts after the
	// first newline
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", ""
	}
	body := rest[nl+1:]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", ""
	}

	code = body[:end]
	before := strings.TrimSpace(text[:start])
	after := strings.TrimSpace(body[end+3:])
	switch {
	case before == "":
		explanation = after
	case after == "":
		explanation = before
	default:
		explanation = before + "\n\n" + after
	}
	return code, explanation
}
