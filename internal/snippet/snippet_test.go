package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_MatchAtStart(t *testing.T) {
	text := "secret plans follow"
	got := Extract(text, 0, 6, DefaultWindow)
	assert.Equal(t, "secret plans follow", got)
	assert.False(t, strings.HasPrefix(got, "... "))
}

func TestExtract_ClippedBothSides(t *testing.T) {
	pre := strings.Repeat("a", 70) + " "
	post := " " + strings.Repeat("b", 70)
	text := pre + "KEY" + post
	start := len(pre)

	got := Extract(text, start, start+3, DefaultWindow)

	want := "... " + strings.Repeat("a", 59) + " KEY " + strings.Repeat("b", 59) + " ..."
	assert.Equal(t, want, got)
}

func TestExtract_ExactlyWindowPreceding(t *testing.T) {
	pre := strings.Repeat("x", 60)
	text := pre + "KEY"

	got := Extract(text, 60, 63, DefaultWindow)
	assert.Equal(t, "... "+pre+"KEY", got)

	got = Extract(text[1:], 59, 62, DefaultWindow)
	assert.Equal(t, pre[1:]+"KEY", got)
}

func TestExtract_TrimsWhitespace(t *testing.T) {
	text := "   \n word \t  "
	got := Extract(text, 5, 9, DefaultWindow)
	assert.Equal(t, "word", got)
}

func TestExtract_CountsRunes(t *testing.T) {
	pre := strings.Repeat("é", 10)
	text := pre + "KEY" + strings.Repeat("ü", 10)
	start := len(pre)

	got := Extract(text, start, start+3, 5)
	assert.Equal(t, "... ééééé"+"KEY"+"üüüüü ...", got)
}

func TestExtract_DefaultsAndClamps(t *testing.T) {
	text := "short text"
	assert.Equal(t, "short text", Extract(text, 0, 5, 0))
	assert.Equal(t, "short text", Extract(text, -3, 100, -1))
}
