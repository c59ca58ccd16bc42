package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// deleteOldLogFilesRoutine starts a routine to delete old log folders
func deleteOldLogFilesRoutine(logDirectory string, maxAgeDays int) {
	go func() {
		for {
			deleteOldDateFolders(logDirectory, maxAgeDays, time.Now())
			time.Sleep(time.Hour)
		}
	}()
}

// deleteOldDateFolders removes date folders last modified before now - maxAgeDays
func deleteOldDateFolders(baseDir string, maxAgeDays int, now time.Time) {
	cutoff := now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			std.Warnf("read log directory %s: %v", baseDir, err)
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			std.Warnf("stat log folder %s: %v", entry.Name(), err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			std.Warnf("delete log folder %s: %v", path, err)
			continue
		}
		std.Debugf("deleted log folder %s", path)
	}
}

// compressLogFile gzips src next to itself and removes the original
func compressLogFile(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %v", err)
	}

	gzf, err := os.OpenFile(src+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode())
	if err != nil {
		return fmt.Errorf("failed to open compressed log file: %v", err)
	}
	defer gzf.Close()

	gz := gzip.NewWriter(gzf)
	if _, err := io.Copy(gz, f); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
