package log

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"
)

func TestVerbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		want      []string
		notWant   []string
	}{
		{
			name:      "info only",
			verbosity: 0,
			want:      []string{"info message"},
			notWant:   []string{"debug message", "trace message"},
		},
		{
			name:      "debug",
			verbosity: 1,
			want:      []string{"info message", "debug message"},
			notWant:   []string{"trace message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := toLogr(zerolog.New(&buf), "kstats", tt.verbosity)

			log.Info("info message")
			log.V(1).Info("debug message")
			log.V(2).Info("trace message")

			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestLoggerName(t *testing.T) {
	var buf bytes.Buffer
	log := toLogr(zerolog.New(&buf), "kstats", 0).WithName("registry")

	log.Info("hello", "graph", "G")

	out := buf.String()
	assert.Contains(t, out, `"logger":"kstats/registry"`)
	assert.Contains(t, out, `"graph":"G"`)
}
