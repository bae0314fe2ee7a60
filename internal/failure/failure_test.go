package failure

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("too long: %d", 9000), KindValidation},
		{"acquisition", Acquisition(cause, "fetch %s", "https://x"), KindAcquisition},
		{"composition", Composition(cause, "merge"), KindComposition},
		{"composition without cause", Composition(nil, "empty background"), KindComposition},
		{"sink", Sink(cause, "upload"), KindSink},
		{"not found", fmt.Errorf("job x: %w", ErrNotFound), KindNotFound},
		{"state", fmt.Errorf("job x: %w", ErrState), KindState},
		{"wrapped twice", fmt.Errorf("outer: %w", Sink(cause, "upload")), KindSink},
		{"plain", cause, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestAcquisition_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Acquisition(cause, "fetch clip %d", 2)

	assert.ErrorIs(t, err, ErrAcquisition)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch clip 2")
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, "short", Message(errors.New("short")))

	long := strings.Repeat("a", 800)
	assert.Len(t, Message(errors.New(long)), MaxMessageLength)
}

func TestMessage_DoesNotSplitRunes(t *testing.T) {
	// 499 ASCII bytes followed by a 3-byte rune straddling the limit.
	msg := strings.Repeat("a", MaxMessageLength-1) + "€" + "tail"
	got := Message(errors.New(msg))

	assert.Equal(t, strings.Repeat("a", MaxMessageLength-1), got)
}
