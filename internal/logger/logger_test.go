package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(verbose bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(verbose, false)
	l.output = &buf
	l.errOutput = &buf
	return l, &buf
}

func TestLogger_Levels(t *testing.T) {
	testCases := []struct {
		name     string
		verbose  bool
		log      func(l *Logger)
		expected string
	}{
		{"verbose hidden by default", false, func(l *Logger) { l.Verbosef("page %d", 1) }, ""},
		{"verbose shown when enabled", true, func(l *Logger) { l.Verbosef("page %d", 1) }, "page 1\n"},
		{"warnings always shown", false, func(l *Logger) { l.Warnf("skip %s", "abc") }, "Warning: skip abc\n"},
		{"errors always shown", false, func(l *Logger) { l.Errorf("boom") }, "Error: boom\n"},
		{"success", false, func(l *Logger) { l.Successf("saved to %s", "x.json") }, "saved to x.json\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, buf := newBufferLogger(tc.verbose)
			tc.log(l)
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestNew_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, New(false, true).colors)
}
