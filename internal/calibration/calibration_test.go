package calibration

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Record
		wantErr bool
	}{
		{
			name:    "full file",
			content: "x_min=100\nx_max=4000\ny_min=50\ny_max=3900\nx_zero=2000\ny_zero=2100\ndeadzone=512\n",
			want:    Record{XMin: 100, XMax: 4000, YMin: 50, YMax: 3900, XZero: 2000, YZero: 2100, Deadzone: 512},
		},
		{
			name:    "partial file keeps defaults for missing keys",
			content: "x_zero=1900\n",
			want: Record{
				XMin: 0, XMax: 4095, YMin: 0, YMax: 4095,
				XZero: 1900, YZero: 2048, Deadzone: DefaultDeadzone,
			},
		},
		{
			name:    "comments whitespace and junk lines are skipped",
			content: "# calibration\n\n  deadzone = 700  \nnot a pair\nbogus=abc\n",
			want: Record{
				XMin: 0, XMax: 4095, YMin: 0, YMax: 4095,
				XZero: 2048, YZero: 2048, Deadzone: 700,
			},
		},
		{
			name:    "unknown keys only",
			content: "foo=1\nbar=2\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: true,
		},
		{
			name:    "value out of uint16 range is skipped",
			content: "x_max=99999\nx_min=10\n",
			want: Record{
				XMin: 10, XMax: 4095, YMin: 0, YMax: 4095,
				XZero: 2048, YZero: 2048, Deadzone: DefaultDeadzone,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeTemp(t, t.TempDir(), "joypad.config", tt.content)
			rec := Default()
			err := LoadFile(p, &rec)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, Default(), rec, "record must stay untouched on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	rec := Default()
	err := LoadFile(filepath.Join(t.TempDir(), "nope.config"), &rec)
	assert.Error(t, err)
	assert.Equal(t, Default(), rec)
}

func TestLoadChainPrecedence(t *testing.T) {
	logger := discardLogger()

	overrideDir := t.TempDir()
	primaryDir := t.TempDir()
	fallbackDir := t.TempDir()
	primary := filepath.Join(primaryDir, "joypad.config")

	writeTemp(t, overrideDir, "joypad.config", "deadzone=111\n")
	writeTemp(t, primaryDir, "joypad.config", "deadzone=222\n")
	writeTemp(t, fallbackDir, "joypad.config", "deadzone=333\n")

	rec := LoadChain(overrideDir, primary, fallbackDir, "joypad.config", logger)
	assert.Equal(t, uint16(111), rec.Deadzone, "override dir wins")

	require.NoError(t, os.Remove(filepath.Join(overrideDir, "joypad.config")))
	rec = LoadChain(overrideDir, primary, fallbackDir, "joypad.config", logger)
	assert.Equal(t, uint16(222), rec.Deadzone, "primary next")

	require.NoError(t, os.Remove(primary))
	rec = LoadChain(overrideDir, primary, fallbackDir, "joypad.config", logger)
	assert.Equal(t, uint16(333), rec.Deadzone, "fallback dir next")

	require.NoError(t, os.Remove(filepath.Join(fallbackDir, "joypad.config")))
	rec = LoadChain(overrideDir, primary, fallbackDir, "joypad.config", logger)
	assert.Equal(t, Default(), rec, "defaults when nothing parses")
}

func TestLoadChainNoOverrideDir(t *testing.T) {
	primaryDir := t.TempDir()
	primary := writeTemp(t, primaryDir, "joypad.config", "x_zero=1500\n")
	rec := LoadChain("", primary, t.TempDir(), "joypad.config", discardLogger())
	assert.Equal(t, uint16(1500), rec.XZero)
}

func TestWriteFileRoundTrip(t *testing.T) {
	want := Record{XMin: 12, XMax: 4000, YMin: 40, YMax: 3950, XZero: 2020, YZero: 2070, Deadzone: 900}
	p := filepath.Join(t.TempDir(), "joypad.config")
	require.NoError(t, WriteFile(p, want))

	got := Default()
	require.NoError(t, LoadFile(p, &got))
	assert.Equal(t, want, got)
}
