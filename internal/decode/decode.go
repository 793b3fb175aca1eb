// Package decode turns raw MIDI bytes into contracts.Message values.
package decode

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midirx/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// ErrIncompleteMessage is returned when the raw bytes are shorter than the status byte requires.
var ErrIncompleteMessage = errors.New("incomplete MIDI message")

// Decode decodes a single MIDI message.
func Decode(raw []byte) (contracts.Message, error) {
	if len(raw) == 0 {
		return contracts.Message{}, ErrIncompleteMessage
	}
	status := raw[0]
	if status < 0x80 {
		return contracts.Message{}, fmt.Errorf("decode 0x%02X: running status not supported", status)
	}
	if status >= 0xF0 {
		return contracts.Message{Type: contracts.System}, nil
	}
	if len(raw) < Length(status) {
		return contracts.Message{}, fmt.Errorf("%w: status 0x%02X with %d bytes", ErrIncompleteMessage, status, len(raw))
	}

	msg := gomidi.Message(raw[:Length(status)])
	var ch, a, b uint8

	switch {
	case msg.GetNoteOn(&ch, &a, &b):
		return contracts.Message{Type: contracts.NoteOn, Channel: ch, Number: uint16(a), Value: uint16(b)}, nil
	case msg.GetNoteOff(&ch, &a, &b):
		return contracts.Message{Type: contracts.NoteOff, Channel: ch, Number: uint16(a), Value: uint16(b)}, nil
	case msg.GetControlChange(&ch, &a, &b):
		return contracts.Message{Type: contracts.ControllerChange, Channel: ch, Number: uint16(a), Value: uint16(b)}, nil
	case msg.GetPolyAfterTouch(&ch, &a, &b):
		return contracts.Message{Type: contracts.KeyPressure, Channel: ch, Number: uint16(a), Value: uint16(b)}, nil
	case msg.GetAfterTouch(&ch, &a):
		return contracts.Message{Type: contracts.ChannelPressure, Channel: ch, Value: uint16(a)}, nil
	case msg.GetProgramChange(&ch, &a):
		return contracts.Message{Type: contracts.ProgramChange, Channel: ch, Number: uint16(a)}, nil
	}

	var rel int16
	var abs uint16
	if msg.GetPitchBend(&ch, &rel, &abs) {
		return contracts.Message{Type: contracts.PitchBend, Channel: ch, Value: abs}, nil
	}
	return contracts.Message{}, fmt.Errorf("decode 0x%02X: unrecognized channel message", status)
}

// Length returns the byte length of a channel message with the given status byte,
// or 1 for system and data bytes.
func Length(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	default:
		return 1
	}
}

// Split breaks a packet holding several back-to-back channel messages into individual
// messages. System messages and stray data bytes are passed through one byte at a time,
// except SysEx, which is consumed up to and including its terminator.
func Split(packet []byte) [][]byte {
	var out [][]byte
	for i := 0; i < len(packet); {
		status := packet[i]
		if status == 0xF0 {
			end := i + 1
			for end < len(packet) && packet[end] != 0xF7 {
				end++
			}
			if end < len(packet) {
				end++
			}
			out = append(out, packet[i:end])
			i = end
			continue
		}
		n := Length(status)
		if status < 0x80 || i+n > len(packet) {
			n = 1
		}
		out = append(out, packet[i:i+n])
		i += n
	}
	return out
}
