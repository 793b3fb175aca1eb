package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("MIDIRX_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestDevicesListsFakeInput(t *testing.T) {
	require.Equal(t, "0\tmidirx virtual input\n", execute(t, "devices", "--fake"))
}

func TestListenPrintsReassembledNRPN(t *testing.T) {
	out := execute(t, "listen", "--fake", "--duration", "100ms")
	require.Equal(t, "3: CC133 [384]\n1: NOTE ON60 [100]\n", out)
}

func TestRejectsUnknownLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"devices", "--fake", "--log-level", "loud"})
	require.ErrorContains(t, cmd.Execute(), "unsupported log level")
}
