package job_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gowvp/curation/internal/conf"
	"github.com/gowvp/curation/internal/core/job"
	"github.com/gowvp/curation/internal/core/job/store/jobdb"
	"github.com/gowvp/curation/internal/data"
	"github.com/ixugo/goddd/pkg/orm"
)

func TestCleanupFailedJobs(t *testing.T) {
	cfg := conf.DefaultConfig()
	cfg.Data.Database.Dsn = filepath.Join(t.TempDir(), "data.db")
	db, err := data.SetupDB(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	core := job.NewCore(jobdb.NewDB(db).AutoMigrate(true))

	old := orm.Time{Time: time.Now().AddDate(0, 0, -40)}
	recent := orm.Now()
	jobs := []job.Job{
		{ID: "old-failed", Status: job.StatusFailed, CreatedAt: old, UpdatedAt: old},
		{ID: "old-completed", Status: job.StatusCompleted, CreatedAt: old, UpdatedAt: old},
		{ID: "new-failed", Status: job.StatusFailed, CreatedAt: recent, UpdatedAt: recent},
	}
	for i := range jobs {
		if err := db.Create(&jobs[i]).Error; err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Create(&job.Frame{ID: "f1", JobID: "old-failed"}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&job.Annotation{ID: "a1", JobID: "old-failed", FrameID: "f1", ClassName: "car"}).Error; err != nil {
		t.Fatal(err)
	}

	n := core.CleanupFailedJobs(context.Background(), time.Now().AddDate(0, 0, -30))
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}

	var ids []string
	if err := db.Model(&job.Job{}).Order("id").Pluck("id", &ids).Error; err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "new-failed" || ids[1] != "old-completed" {
		t.Fatalf("remaining jobs = %v", ids)
	}
	var frames, annotations int64
	db.Model(&job.Frame{}).Count(&frames)
	db.Model(&job.Annotation{}).Count(&annotations)
	if frames != 0 || annotations != 0 {
		t.Fatalf("frames = %d annotations = %d", frames, annotations)
	}
}
