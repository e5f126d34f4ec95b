package cron

import (
	"context"
	"time"

	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
)

// OrphanReport 一次孤儿文件清理的结果
type OrphanReport struct {
	Scanned    int
	Orphans    []storage.ObjectInfo
	Removed    int
	FreedBytes int64
}

// SweepOrphans 删除本地存储中没有合同引用、且修改时间早于 olderThan 的文件。
// dryRun 时只统计不删除。
func SweepOrphans(ctx context.Context, store *storage.LocalStorage, contracts *repository.ContractRepository, olderThan time.Time, dryRun bool) (*OrphanReport, error) {
	objects, err := store.Walk()
	if err != nil {
		return nil, err
	}

	// 先列文件再查引用，清理期间新上传的文件一定会被查到
	keys, err := contracts.ListStorageKeys()
	if err != nil {
		return nil, err
	}

	report := &OrphanReport{Scanned: len(objects)}
	for _, obj := range objects {
		if _, ok := keys[obj.Key]; ok {
			continue
		}
		if !obj.ModTime.Before(olderThan) {
			continue
		}
		report.Orphans = append(report.Orphans, obj)
		if dryRun {
			continue
		}

		if err := store.Delete(ctx, obj.Key); err != nil {
			logger.LogError("cron", "SweepOrphans", obj.Key, err)
			continue
		}
		report.Removed++
		report.FreedBytes += obj.Size
	}
	return report, nil
}
