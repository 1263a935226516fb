package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	tests := []struct {
		name     string
		print    func(p *Printer)
		toStderr bool
		want     string
	}{
		{"success", func(p *Printer) { p.Success("Copy generated for %d platforms", 3) }, false, "✓ Copy generated for 3 platforms\n"},
		{"error", func(p *Printer) { p.Error("douyin: %s", "quota exceeded") }, true, "✗ douyin: quota exceeded\n"},
		{"warning", func(p *Printer) { p.Warning("Missing platforms: %v", []string{"weibo"}) }, true, "⚠ Missing platforms: [weibo]\n"},
		{"info", func(p *Printer) { p.Info("Gateway starting on port %d", 3001) }, false, "→ Gateway starting on port 3001\n"},
		{"step", func(p *Printer) { p.Step("%s steps", "poster") }, false, "▶ poster steps\n"},
		{"detail", func(p *Printer) { p.Detail("audit: %s", "passed") }, false, "  audit: passed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var outBuf, errBuf bytes.Buffer
			tt.print(NewPrinterWithWriters(&outBuf, &errBuf, false))

			got, other := outBuf.String(), errBuf.String()
			if tt.toStderr {
				got, other = other, got
			}
			assert.Equal(t, tt.want, got)
			assert.Empty(t, other)
		})

		t.Run(tt.name+" in color", func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(NewPrinterWithWriters(&buf, &buf, true))

			assert.Contains(t, buf.String(), strings.TrimSuffix(tt.want, "\n"))
			assert.Contains(t, buf.String(), "\033[")
			assert.True(t, strings.HasSuffix(buf.String(), colorReset+"\n"))
		})
	}
}

func TestPrinterPlain(t *testing.T) {
	var outBuf bytes.Buffer
	p := NewPrinterWithWriters(&outBuf, nil, false)

	p.Print("Hello %s", "world")
	assert.Equal(t, "Hello world", outBuf.String())

	outBuf.Reset()
	p.Println("Hello", "world")
	assert.Equal(t, "Hello world\n", outBuf.String())
}

func TestPrinterJSON(t *testing.T) {
	var outBuf bytes.Buffer
	p := NewPrinterWithWriters(&outBuf, nil, false)

	require.NoError(t, p.JSON(map[string]any{"result": "文案"}))
	assert.Equal(t, "{\n  \"result\": \"文案\"\n}\n", outBuf.String())

	assert.Error(t, p.JSON(func() {}))
}

func TestPrinterConcurrentLines(t *testing.T) {
	var outBuf bytes.Buffer
	p := NewPrinterWithWriters(&outBuf, nil, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Info("line %d", i)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(outBuf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "→ line "), "interleaved line %q", line)
	}
}
