package kmain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srunixre/srunix/kernel/kfmt"
	"github.com/srunixre/srunix/multiboot"
)

func mockCmdLine(t *testing.T, cmdLine string) {
	t.Cleanup(func() { visitCmdLineFn = multiboot.VisitCmdLine })

	visitCmdLineFn = func(visitor multiboot.CmdLineVisitor) {
		for _, token := range strings.Fields(cmdLine) {
			key, value, found := strings.Cut(token, "=")
			if !found {
				value = key
			}
			if !visitor(key, value) {
				return
			}
		}
	}
}

func TestParseConfig(t *testing.T) {
	defer func() {
		kfmt.SetOutputSink(nil)
	}()
	kfmt.SetOutputSink(&strings.Builder{})

	specs := []struct {
		cmdLine string
		exp     Config
	}{
		{
			"",
			DefaultConfig(),
		},
		{
			"hz=1000 mouse=on loglevel=debug ttys=3",
			Config{TickHz: 1000, Mouse: true, LogLevel: kfmt.LevelDebug, Sessions: 3},
		},
		{
			"consoleFont=terminus mouse",
			Config{TickHz: 100, Mouse: true, LogLevel: kfmt.LevelInfo, Sessions: 9},
		},
		{
			"hz=0 ttys=10 loglevel=loud mouse=maybe",
			DefaultConfig(),
		},
		{
			"hz=abc ttys=-1 mouse=on mouse=off",
			DefaultConfig(),
		},
	}

	for specIndex, spec := range specs {
		mockCmdLine(t, spec.cmdLine)
		assert.Equal(t, spec.exp, ParseConfig(), "[spec %d] cmdline %q", specIndex, spec.cmdLine)
	}
}

func TestParseConfigLogsInvalidOptions(t *testing.T) {
	var buf strings.Builder
	defer func() {
		kfmt.SetOutputSink(nil)
	}()
	kfmt.SetOutputSink(&buf)

	mockCmdLine(t, "ttys=42")
	ParseConfig()

	assert.True(t, strings.HasSuffix(buf.String(), "kmain: ignoring invalid boot option ttys=42\n"), "got %q", buf.String())
	assert.NotContains(t, buf.String(), "\n\n")
}
