package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	dateLayout       = "2006-01-02"
	maxRetentionDays = 30
)

// DailyFile mirrors the standard logger to stdout and an app-YYYY-MM-DD.log
// file, switching files at midnight and pruning files past retention.
type DailyFile struct {
	dir       string
	retention int
	now       func() time.Time

	mu      sync.Mutex
	date    string
	file    *os.File
	stdout  io.Writer
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewDailyFile(dir string, retentionDays int) *DailyFile {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if retentionDays > maxRetentionDays {
		retentionDays = maxRetentionDays
	}
	return &DailyFile{dir: dir, retention: retentionDays, now: time.Now, stdout: os.Stdout}
}

// Start opens today's file, points the standard logger at it and begins the
// rotation loop. Close stops the loop and closes the file.
func (d *DailyFile) Start() error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	if err := d.rotate(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.stopped = make(chan struct{})
	go d.loop(ctx)
	return nil
}

func (d *DailyFile) loop(ctx context.Context) {
	defer close(d.stopped)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.rotate(); err != nil {
				log.Printf("log rotation: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// rotate switches to the file for the current date when it changed.
func (d *DailyFile) rotate() error {
	date := d.now().Format(dateLayout)
	d.mu.Lock()
	defer d.mu.Unlock()
	if date == d.date && d.file != nil {
		return nil
	}
	name := filepath.Join(d.dir, fmt.Sprintf("app-%s.log", date))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(d.stdout, file))
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.date = date
	d.prune()
	return nil
}

func (d *DailyFile) prune() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	cutoff := d.now().AddDate(0, 0, -(d.retention - 1)).Format(dateLayout)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		datePart := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		if _, err := time.Parse(dateLayout, datePart); err != nil {
			continue
		}
		if datePart < cutoff {
			_ = os.Remove(filepath.Join(d.dir, name))
		}
	}
}

func (d *DailyFile) Close() {
	if d.cancel != nil {
		d.cancel()
		<-d.stopped
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	log.SetOutput(d.stdout)
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
}
