package enginelog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"voxelcore/internal/enginelog"
)

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func waitForDrain(l *enginelog.Logger) {
	// The background goroutine is asynchronous; give it a moment to catch
	// up before asserting on side effects.
	time.Sleep(20 * time.Millisecond)
}

func TestParseLevelAcceptsCaseInsensitiveNames(t *testing.T) {
	lvl, err := enginelog.ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, enginelog.Debug, lvl)

	lvl, err = enginelog.ParseLevel(" warning ")
	require.NoError(t, err)
	require.Equal(t, enginelog.Warn, lvl)
}

func TestParseLevelRejectsUnknownNameWithInfoFallback(t *testing.T) {
	lvl, err := enginelog.ParseLevel("verbose")
	require.Error(t, err)
	require.Equal(t, enginelog.Info, lvl)
}

func TestIsLevelEnabledRespectsThreshold(t *testing.T) {
	l := enginelog.New(enginelog.Warn, 16)
	defer l.Shutdown()

	require.True(t, l.IsLevelEnabled(enginelog.Fatal))
	require.True(t, l.IsLevelEnabled(enginelog.Error))
	require.True(t, l.IsLevelEnabled(enginelog.Warn))
	require.False(t, l.IsLevelEnabled(enginelog.Info))
	require.False(t, l.IsLevelEnabled(enginelog.Debug))
}

func TestSetLevelChangesFilterAtRuntime(t *testing.T) {
	l := enginelog.New(enginelog.Error, 16)
	defer l.Shutdown()

	require.False(t, l.IsLevelEnabled(enginelog.Info))
	l.SetLevel(enginelog.Info)
	require.True(t, l.IsLevelEnabled(enginelog.Info))
}

func TestEnqueueIncrementsEntriesCounter(t *testing.T) {
	l := enginelog.New(enginelog.Trace, 16)
	defer l.Shutdown()
	l.SetConsoleOutput(false)

	reg := prometheus.NewRegistry()
	require.NoError(t, l.RegisterMetrics(reg))

	l.Infof("hello %s", "world")
	waitForDrain(l)

	require.Equal(t, float64(1), gatherCounter(t, reg, "voxelcore_log_entries_total"))
}

func TestAddLogFileWritesFormattedEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	l := enginelog.New(enginelog.Trace, 16)
	l.SetConsoleOutput(false)
	require.NoError(t, l.AddLogFile(path))

	l.Warnf("disk nearly full: %d%%", 97)
	l.Shutdown()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[WARN]")
	require.Contains(t, string(data), "disk nearly full: 97%")
}

func TestConsoleOutputToggleSuppressesWrites(t *testing.T) {
	l := enginelog.New(enginelog.Trace, 16)
	defer l.Shutdown()
	l.SetConsoleOutput(false)

	// No assertion beyond "doesn't panic and doesn't block" — console
	// writes aren't easily interceptable without redirecting os.Stdout,
	// and the level/file-sink tests already cover formatting behavior.
	l.Infof("silent")
	waitForDrain(l)
}

func TestFlushBlocksUntilQueuedEntriesAreProcessed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	l := enginelog.New(enginelog.Trace, 64)
	defer l.Shutdown()
	l.SetConsoleOutput(false)
	require.NoError(t, l.AddLogFile(path))

	for i := 0; i < 10; i++ {
		l.Infof("flush line %d", i)
	}
	l.Flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "flush line 9")
}

func TestFlushReturnsImmediatelyWhenQueueIsEmpty(t *testing.T) {
	l := enginelog.New(enginelog.Trace, 16)
	defer l.Shutdown()

	done := make(chan struct{})
	go func() {
		l.Flush()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Flush did not return for an empty queue")
	}
}

func TestShutdownDrainsQueuedEntriesBeforeClosingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	l := enginelog.New(enginelog.Trace, 64)
	l.SetConsoleOutput(false)
	require.NoError(t, l.AddLogFile(path))

	for i := 0; i < 10; i++ {
		l.Infof("line %d", i)
	}
	l.Shutdown()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "line 9")
}
