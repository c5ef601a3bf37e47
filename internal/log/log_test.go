package log

import "testing"

func TestNewModuleLogger_LogsAtEveryLevelWithoutPanicking(t *testing.T) {
	l := NewModuleLogger("test")
	l.Trace("trace", "k", "v")
	l.Debug("debug", "k", 1)
	l.Info("info")
	l.Warn("warn", "err", "boom")
	l.Error("error", "err", "boom")
	Sync()
}

func TestNewModuleLogger_DistinctModulesGetIndependentLoggers(t *testing.T) {
	a := NewModuleLogger("a")
	b := NewModuleLogger("b")
	if a.module == b.module {
		t.Fatal("expected distinct module names")
	}
}
