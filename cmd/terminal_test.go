package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func TestTerminalDeviceNames(t *testing.T) {
	in, out := terminalDeviceNames("windows")
	require.Equal(t, "CONIN$", in)
	require.Equal(t, "CONOUT$", out)

	in, out = terminalDeviceNames("linux")
	require.Equal(t, "/dev/tty", in)
	require.Equal(t, "/dev/tty", out)
}

func TestGetProgramOptions_PipedUsesTTYAndCleansUp(t *testing.T) {
	origIsPiped := stdinIsPiped
	origOpenTTY := openTerminalIOFn
	defer func() {
		stdinIsPiped = origIsPiped
		openTerminalIOFn = origOpenTTY
	}()
	stdinIsPiped = func() bool { return true }

	inFile, err := os.CreateTemp(t.TempDir(), "tty-in-*")
	require.NoError(t, err)
	outFile, err := os.CreateTemp(t.TempDir(), "tty-out-*")
	require.NoError(t, err)
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return inFile, outFile, nil
	}

	opts, cleanup := getProgramOptions(context.Background())
	require.Len(t, opts, 3)

	// both handles are closed, so a second close fails
	cleanup()
	require.Error(t, inFile.Close())
	require.Error(t, outFile.Close())
}

func TestGetProgramOptions_NoTTYFallsBack(t *testing.T) {
	origIsPiped := stdinIsPiped
	origOpenTTY := openTerminalIOFn
	defer func() {
		stdinIsPiped = origIsPiped
		openTerminalIOFn = origOpenTTY
	}()

	stdinIsPiped = func() bool { return false }
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return nil, nil, fmt.Errorf("should not be called")
	}
	opts, cleanup := getProgramOptions(context.Background())
	require.Nil(t, opts)
	require.NotPanics(t, cleanup)

	stdinIsPiped = func() bool { return true }
	opts, cleanup = getProgramOptions(context.Background())
	require.Nil(t, opts)
	require.NotPanics(t, cleanup)
}

func TestWithTTYResizeWatcherSendsOnlyChanges(t *testing.T) {
	origTermGetSize := termGetSize
	origClock := resizeClock
	origSend := sendWindowSize
	defer func() {
		termGetSize = origTermGetSize
		resizeClock = origClock
		sendWindowSize = origSend
	}()

	calls := atomic.Int32{}
	termGetSize = func(int) (int, int, error) {
		switch calls.Add(1) {
		case 1, 2:
			return 80, 24, nil
		default:
			return 120, 24, nil
		}
	}
	fc := testingclock.NewFakeClock(time.Now())
	resizeClock = fc

	msgs := make(chan tea.WindowSizeMsg, 4)
	sendWindowSize = func(_ *tea.Program, msg tea.WindowSizeMsg) { msgs <- msg }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(); _ = w.Close() })

	var p tea.Program
	withTTYResizeWatcher(ctx, w)(&p)
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	recv := func() tea.WindowSizeMsg {
		select {
		case m := <-msgs:
			return m
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for resize message")
			return tea.WindowSizeMsg{}
		}
	}
	waitCalls := func(n int32) {
		require.Eventually(t, func() bool { return calls.Load() >= n }, time.Second, time.Millisecond)
	}

	fc.Step(resizePollInterval)
	require.Equal(t, tea.WindowSizeMsg{Width: 80, Height: 24}, recv())

	fc.Step(resizePollInterval)
	waitCalls(2)
	select {
	case m := <-msgs:
		t.Fatalf("unexpected resize message on unchanged size: %+v", m)
	case <-time.After(50 * time.Millisecond):
	}

	fc.Step(resizePollInterval)
	require.Equal(t, tea.WindowSizeMsg{Width: 120, Height: 24}, recv())
}
