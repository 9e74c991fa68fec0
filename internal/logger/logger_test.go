package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupAppliesLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	l := Logger{Level: "debug"}
	l.Setup()
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestSetupUnknownLevelFallsBack(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	l := Logger{Level: "shouty"}
	l.Setup()
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("global level = %v, want info fallback", zerolog.GlobalLevel())
	}
}
