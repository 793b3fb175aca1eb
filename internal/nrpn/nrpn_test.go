package nrpn

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func feed(f *Filter, channel uint8, parameter, value uint16) []Outcome {
	return []Outcome{
		f.ProcessPiece(channel, ParamMSB, uint8(parameter>>7)),
		f.ProcessPiece(channel, ParamLSB, uint8(parameter&0x7F)),
		f.ProcessPiece(channel, DataMSB, uint8(value>>7)),
		f.ProcessPiece(channel, DataLSB, uint8(value&0x7F)),
	}
}

func TestRoundTrip(t *testing.T) {
	f := NewFilter()
	samples := []uint16{0, 1, 127, 128, 129, 8191, 8192, 16256, 16382, 16383}
	for p := uint16(0); p < 1<<14; p += 97 {
		samples = append(samples, p)
	}

	for _, parameter := range samples {
		for _, value := range samples {
			got := feed(f, 0, parameter, value)
			require.Equal(t, Accumulating, got[0].Kind)
			require.Equal(t, Accumulating, got[1].Kind)
			require.Equal(t, Accumulating, got[2].Kind)
			require.Equal(t, Outcome{Kind: Complete, Parameter: parameter, Value: value}, got[3])
			require.False(t, f.Pending(0))
		}
	}
}

func TestOtherControllersAreNotNrpn(t *testing.T) {
	f := NewFilter()
	f.ProcessPiece(3, ParamMSB, 1)

	for _, cc := range []uint8{0, 1, 7, 64, 96, 97, 100, 101, 127} {
		require.Equal(t, Outcome{Kind: NotNrpn}, f.ProcessPiece(3, cc, 42))
	}
	require.True(t, f.Pending(3), "unrelated controllers must leave state untouched")

	f.ProcessPiece(3, ParamLSB, 2)
	f.ProcessPiece(3, DataMSB, 0)
	require.Equal(t, Outcome{Kind: Complete, Parameter: 130, Value: 9}, f.ProcessPiece(3, DataLSB, 9))
}

func TestDataBeforeParameterDoesNotComplete(t *testing.T) {
	f := NewFilter()

	require.Equal(t, Accumulating, f.ProcessPiece(5, DataMSB, 3).Kind)
	require.Equal(t, Accumulating, f.ProcessPiece(5, DataLSB, 0).Kind)
	require.False(t, f.Pending(5))

	got := feed(f, 5, 200, 300)
	require.Equal(t, Outcome{Kind: Complete, Parameter: 200, Value: 300}, got[3])
}

func TestDataLSBWithoutDataMSBIsDropped(t *testing.T) {
	f := NewFilter()
	f.ProcessPiece(0, ParamMSB, 1)
	f.ProcessPiece(0, ParamLSB, 1)

	require.Equal(t, Accumulating, f.ProcessPiece(0, DataLSB, 5).Kind)
	require.False(t, f.Pending(0))
}

func TestParameterPieceDiscardsStaleData(t *testing.T) {
	f := NewFilter()
	f.ProcessPiece(1, ParamMSB, 0)
	f.ProcessPiece(1, ParamLSB, 10)
	f.ProcessPiece(1, DataMSB, 77)

	// new parameter mid-sequence; the old data MSB must not leak in
	f.ProcessPiece(1, ParamLSB, 11)
	require.Equal(t, Accumulating, f.ProcessPiece(1, DataLSB, 4).Kind)
	require.False(t, f.Pending(1))

	f.ProcessPiece(1, ParamMSB, 0)
	f.ProcessPiece(1, ParamLSB, 11)
	f.ProcessPiece(1, DataMSB, 1)
	require.Equal(t, Outcome{Kind: Complete, Parameter: 11, Value: 132}, f.ProcessPiece(1, DataLSB, 4))
}

func TestValueBytesAreMasked(t *testing.T) {
	f := NewFilter()
	f.ProcessPiece(0, ParamMSB, 0xFF)
	f.ProcessPiece(0, ParamLSB, 0xFF)
	f.ProcessPiece(0, DataMSB, 0xFF)
	require.Equal(t, Outcome{Kind: Complete, Parameter: 16383, Value: 16383}, f.ProcessPiece(0, DataLSB, 0xFF))
}

func TestInvalidChannel(t *testing.T) {
	f := NewFilter()
	require.Equal(t, Outcome{Kind: NotNrpn}, f.ProcessPiece(16, ParamMSB, 1))
	require.False(t, f.Pending(16))
}

func TestChannelIsolation(t *testing.T) {
	f := NewFilter()

	// interleaved on one goroutine
	f.ProcessPiece(0, ParamMSB, 1)
	f.ProcessPiece(1, ParamMSB, 2)
	f.ProcessPiece(0, ParamLSB, 3)
	f.ProcessPiece(1, ParamLSB, 4)
	f.ProcessPiece(0, DataMSB, 5)
	f.ProcessPiece(1, DataMSB, 6)
	require.Equal(t, Outcome{Kind: Complete, Parameter: 1<<7 | 3, Value: 5<<7 | 7}, f.ProcessPiece(0, DataLSB, 7))
	require.Equal(t, Outcome{Kind: Complete, Parameter: 2<<7 | 4, Value: 6<<7 | 8}, f.ProcessPiece(1, DataLSB, 8))
}

func TestChannelIsolationConcurrent(t *testing.T) {
	f := NewFilter()
	const rounds = 2000

	var wg sync.WaitGroup
	for ch := uint8(0); ch < Channels; ch++ {
		wg.Add(1)
		go func(ch uint8) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				parameter := uint16(ch)*1000 + uint16(i%1000)
				value := uint16(i*7+int(ch)) & 0x3FFF
				got := feed(f, ch, parameter, value)
				if got[3] != (Outcome{Kind: Complete, Parameter: parameter, Value: value}) {
					t.Errorf("channel %d round %d: got %+v", ch, i, got[3])
					return
				}
			}
		}(ch)
	}
	wg.Wait()
}

func TestResetAll(t *testing.T) {
	f := NewFilter()
	f.ProcessPiece(0, ParamMSB, 1)
	f.ProcessPiece(9, DataMSB, 1)

	f.ResetAll()
	require.False(t, f.Pending(0))
	require.False(t, f.Pending(9))
}
