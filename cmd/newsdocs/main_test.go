package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdocs/archiver"
	"github.com/pevans/newsdocs/history"
)

func TestParseModeArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		noBreak    bool
		mode       archiver.Mode
		pageBreaks bool
		wantErr    bool
	}{
		{name: "combine", args: []string{"combine"}, mode: archiver.ModeCombine, pageBreaks: true},
		{name: "nobreak arg", args: []string{"combine", "nobreak"}, mode: archiver.ModeCombine, pageBreaks: false},
		{name: "no-break flag", args: []string{"stars"}, noBreak: true, mode: archiver.ModeStars, pageBreaks: false},
		{name: "other second arg", args: []string{"move", "x"}, mode: archiver.ModeMove, pageBreaks: true},
		{name: "missing mode", args: nil, wantErr: true},
		{name: "unknown mode", args: []string{"shuffle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, pageBreaks, err := parseModeArgs(tt.args, tt.noBreak)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.pageBreaks, pageBreaks)
		})
	}
}

func TestRootRejectsMissingMode(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.ErrorIs(t, err, errMissingMode)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRootRejectsTooManyArgs(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"combine", "nobreak", "extra"})

	assert.Error(t, cmd.Execute())
}

func TestPrintTable(t *testing.T) {
	started := time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local)
	runs := []history.Run{
		{Site: "hubeigov", StartedAt: started, OK: true, New: 3, Skipped: 1},
		{Site: "renmin", StartedAt: started, OK: false, Failed: 2},
	}
	papers := []history.Paper{
		{Site: "hubeigov", FileName: "湖北省政府-政策-2024-01-02-标题.docx", CreatedAt: started},
	}

	var out bytes.Buffer
	printTable(&out, runs, papers)

	s := out.String()
	assert.Contains(t, s, "2024-01-02 08:00  hubeigov   ok     new=3 skipped=1 failed=0")
	assert.Contains(t, s, "renmin     FAILED")
	assert.Contains(t, s, "[hubeigov] 湖北省政府-政策-2024-01-02-标题.docx")

	out.Reset()
	printTable(&out, nil, nil)
	assert.Equal(t, "No runs recorded.\n", out.String())
}
