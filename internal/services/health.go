package services

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/process"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Status           string    `json:"status"`
	Database         string    `json:"database"`
	CheckedAt        time.Time `json:"checkedAt"`
	UploadsDisk      string    `json:"uploadsDisk"`
	UploadsDiskTotal int64     `json:"uploadsDiskTotalBytes"`
	UploadsDiskUsed  int64     `json:"uploadsDiskUsedBytes"`
	ProcessRSS       int64     `json:"processRssBytes"`
	FeedClients      int       `json:"feedClients"`
}

// CheckHealth pings the database and samples disk usage of the uploads
// directory. Only a failed ping marks the report down. When the uploads
// directory cannot be sampled the disk fields stay zero and UploadsDisk says
// so.
func CheckHealth(ctx context.Context, db Pinger, uploadsDir string, feed *ListingHub) HealthReport {
	report := HealthReport{Status: "ok", Database: "ok", UploadsDisk: "ok", CheckedAt: time.Now().UTC()}
	if err := db.Ping(ctx); err != nil {
		logBestEffort("health: ping", err)
		report.Status = "down"
		report.Database = "unreachable"
	}
	if diskStat, err := disk.Usage(uploadsDir); err == nil && diskStat != nil {
		report.UploadsDiskTotal = int64(diskStat.Total)
		report.UploadsDiskUsed = int64(diskStat.Used)
	} else {
		logBestEffort("health: uploads disk", err)
		report.UploadsDisk = "unavailable"
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			report.ProcessRSS = int64(mem.RSS)
		}
	}
	if feed != nil {
		report.FeedClients = feed.Count()
	}
	return report
}
