package contracts

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageIDIgnoresValue(t *testing.T) {
	a := Message{Type: ControllerChange, Channel: 2, Number: 133, Value: 384}
	b := a
	b.Value = 0
	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a, b)
}

func TestMessageStringUsesOneBasedChannel(t *testing.T) {
	m := Message{Type: ControllerChange, Channel: 2, Number: 133, Value: 384}
	require.Equal(t, 3, m.ID().DisplayChannel())
	require.Equal(t, "3: CC133 [384]", m.String())
	require.Equal(t, "1: PITCHBEND0 [8192]", Message{Type: PitchBend, Value: 8192}.String())
	require.Equal(t, "UNKNOWN(42)", MessageType(42).String())
}

func TestMessageIDOrdering(t *testing.T) {
	ids := []MessageID{
		{Type: ControllerChange, Channel: 1, Number: 7},
		{Type: NoteOn, Channel: 1, Number: 60},
		{Type: ControllerChange, Channel: 0, Number: 99},
		{Type: ControllerChange, Channel: 1, Number: 1},
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	require.Equal(t, []MessageID{
		{Type: ControllerChange, Channel: 0, Number: 99},
		{Type: NoteOn, Channel: 1, Number: 60},
		{Type: ControllerChange, Channel: 1, Number: 1},
		{Type: ControllerChange, Channel: 1, Number: 7},
	}, ids)
}

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel("warning")
	require.True(t, ok)
	require.Equal(t, WarnLevel, level)

	_, ok = ParseLogLevel("verbose")
	require.False(t, ok)
}
