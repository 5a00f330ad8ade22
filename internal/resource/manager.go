package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/serviceiface"
)

// StatusFunc reports one runtime resource's state as a short token for the
// heartbeat line.
type StatusFunc func() string

// Manager emits a periodic heartbeat over the registered runtime resources:
// connection pools, the import session map, whatever else the app hands it.
type Manager struct {
	mu                sync.RWMutex
	probes            map[string]StatusFunc
	stopChan          chan struct{}
	heartbeatInterval time.Duration
}

func NewResourceManagerService(cfg map[string]interface{}) serviceiface.Service {
	interval := 30 * time.Second
	if val, ok := cfg["heartbeat_interval"]; ok {
		switch v := val.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				interval = d
			}
		case float64:
			interval = time.Duration(v) * time.Second
		}
	}
	return &Manager{
		probes:            make(map[string]StatusFunc),
		stopChan:          make(chan struct{}),
		heartbeatInterval: interval,
	}
}

func (rm *Manager) Name() string { return "resourcemanager" }

func (rm *Manager) Start() error {
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("ResourceManager started")
	}
	go rm.heartbeatLoop()
	return nil
}

func (rm *Manager) Stop() error {
	close(rm.stopChan)
	return nil
}

// Register adds a status probe under a stable name. Re-registering a name
// replaces the probe.
func (rm *Manager) Register(name string, probe StatusFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.probes[name] = probe
}

func (rm *Manager) heartbeatLoop() {
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit("heartbeat " + rm.statusLine())
			}
		}
	}
}

func (rm *Manager) statusLine() string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	names := make([]string, 0, len(rm.probes))
	for name := range rm.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, rm.probes[name]()))
	}
	if len(parts) == 0 {
		return "no probes registered"
	}
	return strings.Join(parts, " ")
}
