package diffseg

import "strings"

// commentPrefixes mark a stripped line as a comment for the window scan.
var commentPrefixes = []string{"//", "#", "/*", "*", "--", "'''", `"""`}

// specificationKeywords mark a comment as carrying specification intent.
var specificationKeywords = []string{
	"invariant", "precondition", "postcondition",
	"requires:", "ensures:", "pre:", "post:", "assert",
}

// documentationKeywords mark a comment as API documentation.
var documentationKeywords = []string{
	"@param", "@return", "@returns", "@throws", "@arg",
	":param", ":return", ":rtype",
}

// collectComments scans a fixed window around a capture for comment lines
// and classifies each one.
func collectComments(section []string, startIdx, endIdx int) []CommentNote {
	lo := startIdx - commentWindow
	if lo < 0 {
		lo = 0
	}
	hi := endIdx + commentWindow
	if hi >= len(section) {
		hi = len(section) - 1
	}

	var notes []CommentNote
	for i := lo; i <= hi; i++ {
		if skipMetaLine(section[i]) || strings.HasPrefix(section[i], "@@") {
			continue
		}
		_, content := splitMarker(section[i])
		text := strings.TrimSpace(content)
		if !isCommentLine(text) {
			continue
		}
		notes = append(notes, CommentNote{
			Text: text,
			Kind: classifyComment(text),
		})
	}
	return notes
}

func isCommentLine(text string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// classifyComment buckets a comment by keyword.
func classifyComment(text string) CommentKind {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "todo") || strings.Contains(lower, "fixme") || strings.Contains(lower, "hack") {
		return CommentTodo
	}
	for _, kw := range specificationKeywords {
		if strings.Contains(lower, kw) {
			return CommentSpecification
		}
	}
	if strings.HasPrefix(text, "///") || strings.HasPrefix(text, "/**") {
		return CommentDocumentation
	}
	for _, kw := range documentationKeywords {
		if strings.Contains(lower, kw) {
			return CommentDocumentation
		}
	}
	return CommentGeneral
}
