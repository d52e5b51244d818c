package inference

import (
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// An unterminated reasoning block runs to the end of the output.
	openThink     = regexp.MustCompile(`(?is)<think>.*$`)
	instTokens    = regexp.MustCompile(`\[/?INST\]|<\|(?:im_start|im_end|assistant|user|system|eot_id)\|>|</?s>`)
	headingMarkup = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
)

// Sanitize cleans raw generated text, in order:
//  1. drops <think>...</think> reasoning blocks
//  2. drops chat-template delimiters such as [INST] and <|im_end|>
//  3. trims surrounding whitespace
//  4. rewrites every Markdown heading level to ###
//  5. re-joins the sections so each ### header is preceded by a blank line
func Sanitize(raw string) string {
	s := thinkBlock.ReplaceAllString(raw, "")
	s = openThink.ReplaceAllString(s, "")
	s = instTokens.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = headingMarkup.ReplaceAllString(s, "### ")
	return joinSections(s)
}

func joinSections(s string) string {
	chunks := strings.Split(s, "###")
	var b strings.Builder
	b.WriteString(strings.TrimSpace(chunks[0]))
	for _, chunk := range chunks[1:] {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("### ")
		b.WriteString(chunk)
	}
	return b.String()
}
