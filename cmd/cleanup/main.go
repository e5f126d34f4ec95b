package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/database"
	"github.com/qs3c/contract_critic/internal/pkg/cron"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/service"
)

var (
	dryRun      = flag.Bool("dry-run", true, "Dry run mode, don't actually delete files")
	expireHours = flag.Int("expire", 0, "Hours an unreferenced file must be untouched before removal (default: upload.orphan_expire_hours)")
	resetQuota  = flag.Bool("reset-quota", false, "Also reset every user's daily quota")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(&cfg.Log)

	if cfg.Storage.Driver != "" && cfg.Storage.Driver != "local" {
		logger.Fatalf("Orphan cleanup only supports local storage, got driver=%s", cfg.Storage.Driver)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := storage.NewLocalStorage(cfg.Storage.LocalRoot)
	if err != nil {
		logger.Fatalf("Failed to open storage root: %v", err)
	}

	hours := *expireHours
	if hours <= 0 {
		hours = cfg.Upload.OrphanExpireHours
	}
	olderThan := time.Now().Add(-time.Duration(hours) * time.Hour)

	logger.Infof("Starting cleanup (dry-run=%v, root=%s, older than %dh)", *dryRun, cfg.Storage.LocalRoot, hours)

	report, err := cron.SweepOrphans(context.Background(), store, repository.NewContractRepository(db), olderThan, *dryRun)
	if err != nil {
		logger.Fatalf("Cleanup failed: %v", err)
	}

	var orphanSize int64
	for _, obj := range report.Orphans {
		orphanSize += obj.Size
		fmt.Printf("  - %s (%s, %s old)\n", obj.Key, formatSize(obj.Size), time.Since(obj.ModTime).Round(time.Hour))
	}

	if *resetQuota && !*dryRun {
		quotaService := service.NewQuotaService(repository.NewUserRepository(db), cfg)
		if err := quotaService.ResetAllQuotas(); err != nil {
			logger.Errorf("Quota reset failed: %v", err)
		} else {
			fmt.Println("Daily quotas reset")
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Scanned files:  %d\n", report.Scanned)
	fmt.Printf("Orphan files:   %d (%s)\n", len(report.Orphans), formatSize(orphanSize))
	fmt.Printf("Removed files:  %d\n", report.Removed)
	fmt.Printf("Freed space:    %s\n", formatSize(report.FreedBytes))
	if *dryRun {
		fmt.Println("DRY RUN MODE - no files were deleted, run with -dry-run=false to delete")
	}
	fmt.Println(strings.Repeat("=", 60))
}

// formatSize 格式化文件大小
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
