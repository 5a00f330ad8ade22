package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoggerService writes tagged lines to a rotating file under folder_path.
// Rotation happens on the write path once the active file crosses
// max_file_mb; a daily sweep zips files older than retention_days.
type LoggerService struct {
	Config        map[string]interface{}
	mu            sync.Mutex
	file          *os.File
	written       int64
	maxFileBytes  int64
	retentionDays int
	folderPath    string
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func configInt(cfg map[string]interface{}, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func NewLoggerService(config map[string]interface{}) *LoggerService {
	folder, _ := config["folder_path"].(string)
	if folder == "" {
		folder = "./logs"
	}
	return &LoggerService{
		Config:        config,
		stopCh:        make(chan struct{}),
		maxFileBytes:  int64(configInt(config, "max_file_mb")) * 1024 * 1024,
		retentionDays: configInt(config, "retention_days"),
		folderPath:    folder,
	}
}

func (l *LoggerService) Name() string {
	return "logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	if err := l.openFresh(); err != nil {
		return err
	}
	log.Println("[LoggerService] started, writing to", l.file.Name())

	l.wg.Add(1)
	go l.retentionLoop()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	log.Println("[LoggerService] stopping")
	return l.file.Close()
}

// openFresh starts a new timestamped log file and points the stdlib logger at
// it, so stray log.Printf calls from other packages land in the same file.
// Caller holds l.mu.
func (l *LoggerService) openFresh() error {
	name := filepath.Join(l.folderPath,
		fmt.Sprintf("acente_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	l.written = 0
	log.SetOutput(file)
	return nil
}

func (l *LoggerService) logf(tag, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%s] ", tag) + fmt.Sprintf(format, args...)
	log.Print(line)
	l.written += int64(len(line))
	if l.maxFileBytes > 0 && l.written >= l.maxFileBytes {
		if err := l.openFresh(); err == nil {
			log.Println("[LoggerService] rotated to", l.file.Name())
		}
	}
}

// LogAudit records operator-visible events: uploads, confirmations, sweeps.
func (l *LoggerService) LogAudit(msg string) {
	l.logf("AUDIT", "%s", msg)
}

// LogImport records per-session import pipeline milestones.
func (l *LoggerService) LogImport(sessionID, msg string) {
	l.logf("IMPORT", "session=%s %s", sessionID, msg)
}

func (l *LoggerService) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.archiveOldLogs()
		}
	}
}

// archiveOldLogs zips .log files older than the retention window into a
// dated archive and removes the originals.
func (l *LoggerService) archiveOldLogs() {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)
	entries, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}

	zipPath := filepath.Join(l.folderPath,
		fmt.Sprintf("logs_%s.zip", time.Now().Format("20060102")))
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return
	}
	defer zipFile.Close()
	zw := zip.NewWriter(zipFile)
	defer zw.Close()

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		full := filepath.Join(l.folderPath, entry.Name())
		info, err := os.Stat(full)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		dst, err := zw.Create(entry.Name())
		if err != nil {
			continue
		}
		src, err := os.Open(full)
		if err != nil {
			continue
		}
		if _, err := io.Copy(dst, src); err == nil {
			src.Close()
			os.Remove(full)
		} else {
			src.Close()
		}
	}
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}
