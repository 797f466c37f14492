package message

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in     string
		want   Type
		wantOK bool
	}{
		{"", TypeText, true},
		{"text", TypeText, true},
		{"image", TypeImage, true},
		{"sticker", TypeSticker, true},
		{"video", "", false},
		{"TEXT", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseType(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "hi", Preview("hi"))

	exact := strings.Repeat("a", PreviewLength)
	assert.Equal(t, exact, Preview(exact))

	long := strings.Repeat("é", PreviewLength+10)
	got := Preview(long)
	assert.Equal(t, PreviewLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
