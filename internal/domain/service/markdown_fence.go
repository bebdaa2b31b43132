package service

import "regexp"

const fence = "```"

// first fenced block; the info string is optional
var fencedBlock = regexp.MustCompile("(?s)```[\\w+#.-]*[ \\t]*\\r?\\n(.*?)```")

// WrapInFence wraps a script body in a bare code fence.
// The body is expected to end with its own newline.
func WrapInFence(body string) string {
	return fence + "\n" + body + fence
}

// ExtractFromFence returns the contents of the first fenced code block.
// When no fence is present the text is returned unchanged.
func ExtractFromFence(text string) string {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	return m[1]
}
