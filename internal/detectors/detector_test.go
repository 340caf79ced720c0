package detectors

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/writing-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistersSixDetectorsInOrder(t *testing.T) {
	reg, err := Default(DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, []string{
		NameGrammar,
		NameWeakWords,
		NamePassiveVoice,
		NameExcessiveAdjectives,
		NameSentenceStructure,
		NameSpelling,
	}, reg.Names())
}

func TestDefault_RejectsInvalidThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.RepetitiveStartMin = 1

	_, err := Default(th)

	var detErr *Error
	require.ErrorAs(t, err, &detErr)
	assert.Contains(t, err.Error(), "repetitive_start_min")
}

func TestRegistry_RegisterAndRemove(t *testing.T) {
	reg := NewRegistry()
	noop := Detector{Name: "noop", Detect: func(string) []types.Span { return nil }}

	require.NoError(t, reg.Register(noop))
	assert.Error(t, reg.Register(noop), "duplicate names are rejected")
	assert.Error(t, reg.Register(Detector{Name: "missing-func"}))

	assert.True(t, reg.Remove("noop"))
	assert.False(t, reg.Remove("noop"))
	assert.Empty(t, reg.Detectors())
}

func TestDetectors_EmptyTextYieldsNoSpans(t *testing.T) {
	reg, err := Default(DefaultThresholds())
	require.NoError(t, err)

	for _, d := range reg.Detectors() {
		t.Run(d.Name, func(t *testing.T) {
			assert.Empty(t, d.Detect(""))
		})
	}
}

func TestDetectors_SpansStayInsideText(t *testing.T) {
	reg, err := Default(DefaultThresholds())
	require.NoError(t, err)

	texts := []string{
		"He don't know.",
		"Café owners were really very nice, and the crêpes were good.",
		"“Stop!” she said. It was seen. It was seen. It was seen.",
		"The big, old, scary, dark house was haunted by lots of ghosts.",
		"Teh end…  Really?!  ",
		strings.Repeat("and then the long road went on ", 12) + "forever.",
		"日本語 text with very odd spacing\n\nand thier stuff.",
	}

	for _, text := range texts {
		n := utf8.RuneCountInString(text)
		for _, d := range reg.Detectors() {
			for _, s := range d.Detect(text) {
				assert.NoError(t, s.Validate(n), "detector %s produced invalid span %+v for %q", d.Name, s, text)
			}
		}
	}
}

func TestRuneIndex_ConvertsMultibyteOffsets(t *testing.T) {
	weak, err := WeakWordDetector(nil)
	require.NoError(t, err)

	spans := weak.Detect("Café is very nice")

	require.Len(t, spans, 2)
	assert.Equal(t, 8, spans[0].Start)
	assert.Equal(t, 12, spans[0].End)
	assert.Equal(t, 13, spans[1].Start)
	assert.Equal(t, 17, spans[1].End)
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults", func(*Thresholds) {}, false},
		{"zero max", func(th *Thresholds) { th.MaxSentenceWords = 0 }, true},
		{"min above max", func(th *Thresholds) { th.MinSentenceWords = 50 }, true},
		{"adjective run of one", func(th *Thresholds) { th.AdjectiveRunMin = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
