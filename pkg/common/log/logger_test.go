package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestStandardLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewStandardLogger(
		WithOutput(&buf),
		WithLevel(LevelDebug),
	)

	levels := []struct {
		tag string
		log func(string, ...interface{})
	}{
		{"[DEBUG]", logger.Debug},
		{"[INFO]", logger.Info},
		{"[WARN]", logger.Warn},
		{"[ERROR]", logger.Error},
	}
	for _, l := range levels {
		l.log("message at %s", l.tag)
		out := buf.String()
		if !strings.Contains(out, l.tag) || !strings.Contains(out, "message at "+l.tag) {
			t.Errorf("%s logging failed, got: %s", l.tag, out)
		}
		buf.Reset()
	}

	// fields come out sorted by key
	logger.WithFields(map[string]interface{}{
		"slot":  3,
		"index": 7,
		"file":  "colors.tbl",
	}).Info("wrote table")
	output := buf.String()
	if !strings.Contains(output, " file=colors.tbl index=7 slot=3 wrote table") {
		t.Errorf("Logging with fields failed, got: %s", output)
	}
	buf.Reset()

	logger.WithField("component", "store").WithField("op", "read").Info("chained")
	output = buf.String()
	if !strings.Contains(output, "component=store op=read chained") {
		t.Errorf("Chained fields failed, got: %s", output)
	}
	buf.Reset()

	logger.SetLevel(LevelError)
	logger.Debug("should not appear")
	logger.Info("should not appear")
	logger.Warn("should not appear")
	logger.Error("should appear")
	output = buf.String()
	if strings.Contains(output, "should not appear") || !strings.Contains(output, "should appear") {
		t.Errorf("Level filtering failed, got: %s", output)
	}

	if logger.GetLevel() != LevelError {
		t.Errorf("GetLevel failed, expected LevelError, got: %v", logger.GetLevel())
	}
}

func TestFatalCallsExit(t *testing.T) {
	var buf bytes.Buffer
	code := -1

	logger := NewStandardLogger(WithOutput(&buf))
	logger.exit = func(c int) { code = c }

	logger.WithField("path", "x.tbl").Fatal("cannot open")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] path=x.tbl cannot open") {
		t.Errorf("unexpected fatal output: %s", buf.String())
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	// Fatal is below the discard level, so this must not exit
	logger.Fatal("ignored")
	logger.Error("ignored")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"Error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"verbose", LevelInfo, true},
	}

	for _, tc := range testCases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDefaultLogger(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	var buf bytes.Buffer
	SetDefaultLogger(NewStandardLogger(
		WithOutput(&buf),
		WithLevel(LevelInfo),
	))

	Info("Global info message")
	if !strings.Contains(buf.String(), "[INFO]") || !strings.Contains(buf.String(), "Global info message") {
		t.Errorf("Global info logging failed, got: %s", buf.String())
	}
	buf.Reset()

	WithField("global", true).Info("Global with field")
	if !strings.Contains(buf.String(), "global=true") {
		t.Errorf("Global logging with field failed, got: %s", buf.String())
	}
	buf.Reset()

	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug should be filtered at info level, got: %s", buf.String())
	}
}
