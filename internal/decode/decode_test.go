package decode

import (
	"testing"

	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestDecodeChannelMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want contracts.Message
	}{
		{"note on", gomidi.NoteOn(2, 60, 100), contracts.Message{Type: contracts.NoteOn, Channel: 2, Number: 60, Value: 100}},
		{"note off", gomidi.NoteOff(0, 61), contracts.Message{Type: contracts.NoteOff, Channel: 0, Number: 61}},
		{"control change", gomidi.ControlChange(15, 7, 127), contracts.Message{Type: contracts.ControllerChange, Channel: 15, Number: 7, Value: 127}},
		{"pitch bend center", gomidi.Pitchbend(1, 0), contracts.Message{Type: contracts.PitchBend, Channel: 1, Value: 8192}},
		{"pitch bend max", []byte{0xE3, 0x7F, 0x7F}, contracts.Message{Type: contracts.PitchBend, Channel: 3, Value: 16383}},
		{"channel pressure", gomidi.AfterTouch(4, 90), contracts.Message{Type: contracts.ChannelPressure, Channel: 4, Value: 90}},
		{"key pressure", gomidi.PolyAfterTouch(5, 40, 12), contracts.Message{Type: contracts.KeyPressure, Channel: 5, Number: 40, Value: 12}},
		{"program change", gomidi.ProgramChange(6, 9), contracts.Message{Type: contracts.ProgramChange, Channel: 6, Number: 9}},
		{"clock", []byte{0xF8}, contracts.Message{Type: contracts.System}},
		{"sysex", []byte{0xF0, 0x41, 0x10, 0xF7}, contracts.Message{Type: contracts.System}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrIncompleteMessage)

	_, err = Decode([]byte{0xB0, 7})
	require.ErrorIs(t, err, ErrIncompleteMessage)

	_, err = Decode([]byte{0x40, 0x40})
	require.Error(t, err)
}

func TestSplitPacket(t *testing.T) {
	packet := []byte{
		0xB1, 99, 1,
		0xB1, 98, 5,
		0xC0, 3,
		0xF8,
		0xF0, 0x7E, 0xF7,
		0x90, 60,
	}

	got := Split(packet)
	require.Equal(t, [][]byte{
		{0xB1, 99, 1},
		{0xB1, 98, 5},
		{0xC0, 3},
		{0xF8},
		{0xF0, 0x7E, 0xF7},
		{0x90},
		{60},
	}, got)
}
