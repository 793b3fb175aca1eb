// Package nrpn reassembles Non-Registered Parameter Number sequences.
//
// An NRPN is sent as four controller changes on one channel: parameter MSB (99),
// parameter LSB (98), data entry MSB (6) and data entry LSB (38). The filter keeps one
// accumulator per channel and reports a completed (parameter, value) pair once the data
// entry LSB arrives.
package nrpn

import "sync"

// Controller numbers that make up an NRPN sequence.
const (
	ParamMSB uint8 = 99
	ParamLSB uint8 = 98
	DataMSB  uint8 = 6
	DataLSB  uint8 = 38
)

// Channels is the number of MIDI channels the filter tracks.
const Channels = 16

// Kind classifies the result of feeding one controller change to the filter.
type Kind uint8

const (
	NotNrpn Kind = iota
	Accumulating
	Complete
)

func (k Kind) String() string {
	switch k {
	case NotNrpn:
		return "not-nrpn"
	case Accumulating:
		return "accumulating"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome is the result of ProcessPiece. Parameter and Value are set only for Complete.
type Outcome struct {
	Kind      Kind
	Parameter uint16
	Value     uint16
}

const (
	haveParamMSB uint8 = 1 << iota
	haveParamLSB
	haveDataMSB

	haveParam = haveParamMSB | haveParamLSB
)

type channelState struct {
	mu       sync.Mutex
	ready    uint8
	paramMSB uint8
	paramLSB uint8
	dataMSB  uint8
}

func (s *channelState) reset() {
	s.ready = 0
	s.paramMSB, s.paramLSB, s.dataMSB = 0, 0, 0
}

// Filter holds the per-channel reassembly state.
//
// Each channel has its own lock, so state for a given channel is mutated by at most one
// goroutine at a time even when several devices deliver on the same channel concurrently.
// Pieces from different devices on the same channel still interleave into one sequence;
// the lock only keeps the accumulator consistent.
type Filter struct {
	channels [Channels]channelState
}

// NewFilter returns a filter with every channel empty.
func NewFilter() *Filter {
	return &Filter{}
}

// ProcessPiece feeds one controller change to the filter.
func (f *Filter) ProcessPiece(channel, controller, value uint8) Outcome {
	if channel >= Channels {
		return Outcome{Kind: NotNrpn}
	}
	switch controller {
	case ParamMSB, ParamLSB, DataMSB, DataLSB:
	default:
		return Outcome{Kind: NotNrpn}
	}

	s := &f.channels[channel]
	s.mu.Lock()
	defer s.mu.Unlock()

	value &= 0x7F
	switch controller {
	case ParamMSB:
		// a new parameter number starts a fresh sequence
		s.ready = s.ready&haveParamLSB | haveParamMSB
		s.paramMSB = value
		s.dataMSB = 0
	case ParamLSB:
		s.ready = s.ready&haveParamMSB | haveParamLSB
		s.paramLSB = value
		s.dataMSB = 0
	case DataMSB:
		s.ready |= haveDataMSB
		s.dataMSB = value
	case DataLSB:
		if s.ready&haveParam != haveParam || s.ready&haveDataMSB == 0 {
			s.reset()
			return Outcome{Kind: Accumulating}
		}
		out := Outcome{
			Kind:      Complete,
			Parameter: uint16(s.paramMSB)<<7 | uint16(s.paramLSB),
			Value:     uint16(s.dataMSB)<<7 | uint16(value),
		}
		s.reset()
		return out
	}
	return Outcome{Kind: Accumulating}
}

// Pending reports whether the channel holds a partial sequence.
func (f *Filter) Pending(channel uint8) bool {
	if channel >= Channels {
		return false
	}
	s := &f.channels[channel]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready != 0
}

// Reset discards any partial sequence on the channel.
func (f *Filter) Reset(channel uint8) {
	if channel >= Channels {
		return
	}
	s := &f.channels[channel]
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

// ResetAll discards partial sequences on every channel.
func (f *Filter) ResetAll() {
	for ch := uint8(0); ch < Channels; ch++ {
		f.Reset(ch)
	}
}
