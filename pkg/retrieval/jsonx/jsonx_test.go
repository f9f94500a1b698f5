package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"markdown fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", "Sure! {\"a\": 1} hope that helps", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no json", "there is nothing here", ""},
		{"reversed braces", "} nope {", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractObject(tc.response))
		})
	}
}

func TestExtractArray(t *testing.T) {
	assert.Equal(t, `["a", "b"]`, ExtractArray("result: [\"a\", \"b\"] done"))
	assert.Equal(t, "", ExtractArray("no array"))
}
