// Package chunker cuts extracted text into windows a synthesis backend
// accepts in one call.
package chunker

import "strings"

// Split cuts text into consecutive windows of at most maxLen code points.
// Window i covers code points [i*maxLen, (i+1)*maxLen). Windows that are
// blank after trimming are dropped; later windows are still emitted.
// Words are not respected: a boundary may fall mid-word.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 || text == "" {
		return nil
	}

	var chunks []string
	start, count := 0, 0
	for i := range text {
		if count == maxLen {
			chunks = appendNonBlank(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return appendNonBlank(chunks, text[start:])
}

func appendNonBlank(chunks []string, window string) []string {
	if strings.TrimSpace(window) == "" {
		return chunks
	}
	return append(chunks, window)
}
