package contracts

import "fmt"

// MessageType identifies the kind of a decoded MIDI message.
type MessageType uint8

const (
	NoteOn MessageType = iota
	NoteOff
	ControllerChange
	PitchBend
	ChannelPressure
	KeyPressure
	ProgramChange
	System
)

// String returns the label the host profile uses for the message type.
func (t MessageType) String() string {
	switch t {
	case NoteOn:
		return "NOTE ON"
	case NoteOff:
		return "NOTE OFF"
	case ControllerChange:
		return "CC"
	case PitchBend:
		return "PITCHBEND"
	case ChannelPressure:
		return "CHANNEL PRESSURE"
	case KeyPressure:
		return "KEY PRESSURE"
	case ProgramChange:
		return "PROGRAM CHANGE"
	case System:
		return "SYSTEM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Message is one decoded MIDI event.
//
// Channel is 0-based. Number is the controller or note number and is zero for PitchBend.
// Value is 7-bit for plain messages and 14-bit for reassembled NRPN and pitch-bend messages.
type Message struct {
	Type    MessageType
	Channel uint8
	Number  uint16
	Value   uint16
}

// ID returns the identity key of the message.
func (m Message) ID() MessageID {
	return MessageID{Type: m.Type, Channel: m.Channel, Number: m.Number}
}

func (m Message) String() string {
	return fmt.Sprintf("%s [%d]", m.ID(), m.Value)
}

// MessageID addresses a control independently of its instantaneous value.
// It is the key used to group messages and to look up profile bindings.
type MessageID struct {
	Type    MessageType
	Channel uint8 // 0-based
	Number  uint16
}

// DisplayChannel returns the 1-based channel shown to users.
func (id MessageID) DisplayChannel() int {
	return int(id.Channel) + 1
}

// Less orders IDs by channel, then type, then number.
func (id MessageID) Less(other MessageID) bool {
	if id.Channel != other.Channel {
		return id.Channel < other.Channel
	}
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	return id.Number < other.Number
}

func (id MessageID) String() string {
	return fmt.Sprintf("%d: %s%d", id.DisplayChannel(), id.Type, id.Number)
}

// Receiver is the control surface of the ingestion pipeline.
type Receiver interface {
	Init() error                                   // Opens devices and starts dispatching.
	Subscribe(owner string, callback func(Message)) // Appends a callback; there is no unsubscribe.
	RescanDevices() error                          // Stops and reopens every input device.
	Devices() []string                             // Names of the currently open devices.
	Close() error                                  // Stops devices, drains the queue and stops dispatching.
}
