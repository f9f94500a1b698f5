// Package jsonx extracts JSON fragments from prose-wrapped model output.
// Reasoning models routinely wrap structured output in markdown fences or
// commentary; all parsers in the pipeline go through these helpers.
package jsonx

import "strings"

// ExtractObject returns the outermost {...} fragment, or "" if none.
func ExtractObject(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

// ExtractArray returns the outermost [...] fragment, or "" if none.
func ExtractArray(response string) string {
	startIdx := strings.Index(response, "[")
	endIdx := strings.LastIndex(response, "]")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
