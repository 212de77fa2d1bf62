package cmd

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, isTerminal bool, open func() (*os.File, *os.File, error)) {
	t.Helper()
	origIn, origOut, origOpen := stdinIsTerminal, stdoutIsTerminal, openTerminalIOFn
	stdinIsTerminal = func() bool { return isTerminal }
	stdoutIsTerminal = func() bool { return isTerminal }
	openTerminalIOFn = open
	t.Cleanup(func() {
		stdinIsTerminal, stdoutIsTerminal, openTerminalIOFn = origIn, origOut, origOpen
	})
}

func TestTerminalDeviceNames(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in  string
		out string
	}{
		"windows": {in: "CONIN$", out: "CONOUT$"},
		"linux":   {in: "/dev/tty", out: "/dev/tty"},
		"darwin":  {in: "/dev/tty", out: "/dev/tty"},
	}

	for goos, expected := range tests {
		t.Run(goos, func(t *testing.T) {
			t.Parallel()
			in, out := terminalDeviceNames(goos)
			require.Equal(t, expected.in, in)
			require.Equal(t, expected.out, out)
		})
	}
}

func TestGetProgramOptions_RedirectedUsesTTYAndCleansUp(t *testing.T) {
	inFile, err := os.CreateTemp(t.TempDir(), "tty-in-*")
	require.NoError(t, err)
	outFile, err := os.CreateTemp(t.TempDir(), "tty-out-*")
	require.NoError(t, err)
	stubTerminal(t, false, func() (*os.File, *os.File, error) {
		return inFile, outFile, nil
	})

	opts, cleanup, err := getProgramOptions()
	require.NoError(t, err)
	require.Len(t, opts, 3)

	// Cleanup closes both handles; a second close errors.
	cleanup()
	require.Error(t, inFile.Close())
	require.Error(t, outFile.Close())
}

func TestGetProgramOptions_TerminalUsesDefaults(t *testing.T) {
	stubTerminal(t, true, func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("should not be called")
	})

	opts, cleanup, err := getProgramOptions()
	require.NoError(t, err)
	require.Nil(t, opts)
	require.NotPanics(t, cleanup)
}

func TestGetProgramOptions_NoTerminal(t *testing.T) {
	stubTerminal(t, false, func() (*os.File, *os.File, error) {
		return nil, nil, os.ErrNotExist
	})

	_, cleanup, err := getProgramOptions()
	require.ErrorIs(t, err, errNoTerminal)
	require.NotPanics(t, cleanup)
}

func TestGetProgramOptions_OutputFailureClosesInput(t *testing.T) {
	inFile, err := os.CreateTemp(t.TempDir(), "tty-in-*")
	require.NoError(t, err)
	stubTerminal(t, false, func() (*os.File, *os.File, error) {
		return inFile, nil, os.ErrPermission
	})

	_, _, err = getProgramOptions()
	require.ErrorIs(t, err, errNoTerminal)
	require.Error(t, inFile.Close(), "input device should already be closed")
}

func TestWithTTYResizeWatcherSendsOnlyChanges(t *testing.T) {
	origTermGetSize, origTicker, origSend := termGetSize, newResizeTicker, sendWindowSize
	t.Cleanup(func() {
		termGetSize, newResizeTicker, sendWindowSize = origTermGetSize, origTicker, origSend
	})

	calls := atomic.Int32{}
	termGetSize = func(int) (int, int, error) {
		switch calls.Add(1) {
		case 1, 2:
			return 80, 24, nil
		default:
			return 120, 40, nil
		}
	}
	ticks := make(chan time.Time, 3)
	newResizeTicker = func(time.Duration) resizeTicker { return &fakeResizeTicker{ch: ticks} }
	msgs := make(chan tea.WindowSizeMsg, 3)
	sendWindowSize = func(_ *tea.Program, msg tea.WindowSizeMsg) { msgs <- msg }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, out := makePipe(t)
	var p tea.Program
	withTTYResizeWatcher(ctx, out)(&p)

	recv := func() tea.WindowSizeMsg {
		select {
		case m := <-msgs:
			return m
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timed out waiting for resize message")
			return tea.WindowSizeMsg{}
		}
	}

	ticks <- time.Now()
	require.Equal(t, tea.WindowSizeMsg{Width: 80, Height: 24}, recv())

	ticks <- time.Now()
	select {
	case m := <-msgs:
		t.Fatalf("unexpected resize message on unchanged size: %+v", m)
	case <-time.After(150 * time.Millisecond):
	}

	ticks <- time.Now()
	require.Equal(t, tea.WindowSizeMsg{Width: 120, Height: 40}, recv())
}

type fakeResizeTicker struct {
	ch <-chan time.Time
}

func (f *fakeResizeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeResizeTicker) Stop()               {}

func makePipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}
