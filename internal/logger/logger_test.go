package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"trace": logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := levelFromString(in); got != want {
			t.Errorf("levelFromString(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestDiagnosticSink(t *testing.T) {
	log, hook := test.NewNullLogger()
	sink := DiagnosticSink(logrus.NewEntry(log).WithField("path", "/srcset/parse"))

	srcset.ParseWithDiagnostics("a.jpg 10q, b.jpg 1.5w", sink)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Level != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", first.Level)
	}
	if first.Data["token"] != "10q" || first.Data["entry"] != 0 || first.Data["path"] != "/srcset/parse" {
		t.Errorf("Unexpected fields: %v", first.Data)
	}
	if entries[1].Data["token"] != "1.5w" || entries[1].Data["entry"] != 1 {
		t.Errorf("Unexpected fields: %v", entries[1].Data)
	}
}
