package ui

import (
	"os"
	"sync"
)

// SyncOutput serializes writes to a terminal shared by the Bubble Tea
// renderer and anything else that emits escape sequences while it runs
// (OSC 52 clipboard writes). Each Write reaches the terminal whole.
//
// It embeds the file so Fd, Read and Close still work, which Bubble Tea
// needs to detect the TTY and read its size.
type SyncOutput struct {
	*os.File
	mu sync.Mutex
}

// NewSyncOutput wraps f.
func NewSyncOutput(f *os.File) *SyncOutput {
	return &SyncOutput{File: f}
}

// Write implements io.Writer.
func (o *SyncOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.File.Write(p)
}

// WriteString implements io.StringWriter.
func (o *SyncOutput) WriteString(s string) (int, error) {
	return o.Write([]byte(s))
}
