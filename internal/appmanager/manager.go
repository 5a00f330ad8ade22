package appmanager

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/importer"
	"AcenteCorpSaas/api/master"
	"AcenteCorpSaas/internal/jobs"
	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/resource"
	"AcenteCorpSaas/internal/serviceiface"
)

var db *sql.DB
var pgxPool *pgxpool.Pool

func SetDB(database *sql.DB) {
	db = database
}

func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

// GetDB returns the database connection
func GetDB() *sql.DB {
	return db
}

// GetPgxPool returns the pgx pool connection
func GetPgxPool() *pgxpool.Pool {
	return pgxPool
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"resourcemanager": func(cfg map[string]interface{}) serviceiface.Service {
		return resource.NewResourceManagerService(cfg)
	},
	"importer": func(cfg map[string]interface{}) serviceiface.Service {
		return importer.NewImporterService(cfg, db, pgxPool)
	},
	"master": func(cfg map[string]interface{}) serviceiface.Service {
		return master.NewMasterService(cfg, db)
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		return api.NewGatewayService(cfg)
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	// First pass: start all except resourcemanager and cron; both depend on
	// services started here.
	for _, service := range am.services {
		if service.Name() == "resourcemanager" || service.Name() == "cron" {
			continue
		}
		fmt.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}

	for _, service := range am.services {
		if service.Name() == "resourcemanager" || service.Name() == "cron" {
			fmt.Println("Starting service:", service.Name())
			if err := service.Start(); err != nil {
				return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
			}
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.Slice(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		if constructor, ok := serviceConstructors[svc.Name]; ok {
			am.RegisterService(constructor(svc.Config))
		}
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}

	// The cron service sweeps import sessions, so it is registered after the
	// importer exists and can hand over its session manager.
	for _, cfg := range configs {
		if cfg.Name != "cron" {
			continue
		}
		if imp, ok := am.GetServiceByName("importer").(*importer.ImporterService); ok {
			am.RegisterService(jobs.NewCronService(cfg.Config, pgxPool, imp.Sessions()))
		}
	}

	am.registerResourceProbes()
}

func (am *AppManager) registerResourceProbes() {
	rm, ok := am.GetServiceByName("resourcemanager").(*resource.Manager)
	if !ok {
		return
	}
	if imp, ok := am.GetServiceByName("importer").(*importer.ImporterService); ok {
		sessions := imp.Sessions()
		rm.Register("import_sessions", func() string {
			return fmt.Sprintf("%d", sessions.Count())
		})
	}
	if db != nil {
		rm.Register("sql_conns", func() string {
			return fmt.Sprintf("%d", db.Stats().OpenConnections)
		})
	}
	if pgxPool != nil {
		rm.Register("pgx_conns", func() string {
			s := pgxPool.Stat()
			return fmt.Sprintf("%d/%d", s.AcquiredConns(), s.TotalConns())
		})
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
