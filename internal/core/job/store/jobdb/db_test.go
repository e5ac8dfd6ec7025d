package jobdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/curation/internal/core/job"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func TestJobGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	jobDB := NewJob(db)

	rows := sqlmock.NewRows([]string{"id", "name", "status"}).AddRow("job-1", "parking lot", job.StatusCompleted)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs("job-1", 1).WillReturnRows(rows)

	var out job.Job
	if err := jobDB.Get(context.Background(), &out, orm.Where("id=?", "job-1")); err != nil {
		t.Fatal(err)
	}
	if out.Status != job.StatusCompleted || out.Name != "parking lot" {
		t.Fatalf("job = %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestGetReviewableJob(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	core := job.NewCore(NewDB(db))

	rows := sqlmock.NewRows([]string{"id", "status"}).AddRow("job-2", job.StatusProcessing)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs("job-2", 1).WillReturnRows(rows)
	if _, err := core.GetReviewableJob(context.Background(), "job-2"); err == nil {
		t.Fatal("processing job must not be reviewable")
	}

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs("missing", 1).WillReturnError(gorm.ErrRecordNotFound)
	_, err = core.GetJob(context.Background(), "missing")
	if err == nil {
		t.Fatal("expect not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestGetAnnotationStats(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	core := job.NewCore(NewDB(db))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT class_name, MAX\(class_color\) (.+) FROM "annotations" WHERE job_id = \$1 GROUP BY (.+) ORDER BY total_count DESC`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_name", "class_color", "total_count", "frame_count", "avg_confidence"}).
			AddRow("pedestrian", "#ff0000", 120, 60, 0.8).
			AddRow("car", "#00ff00", 280, 90, 0.9))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "frames" WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100))
	mock.ExpectCommit()

	stats, err := core.GetAnnotationStats(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalAnnotations != 400 || stats.TotalFrames != 100 || len(stats.Classes) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestListAnnotations(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	core := job.NewCore(NewDB(db))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, class_name, sequence_index FROM "annotations" WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_name", "sequence_index"}).
			AddRow("a1", "car", 0).
			AddRow("a2", "pedestrian", 3))
	mock.ExpectCommit()

	refs, err := core.ListAnnotations(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 || refs[1].ClassName != "pedestrian" || refs[1].SequenceIndex != 3 {
		t.Fatalf("refs = %+v", refs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
