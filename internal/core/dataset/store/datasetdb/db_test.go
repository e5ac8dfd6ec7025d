package datasetdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/curation/internal/core/dataset"
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

func TestCuratedDatasetGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewDB(db).CuratedDataset()

	rows := sqlmock.NewRows([]string{"id", "name", "version", "excluded_frame_ids", "exclusion_reasons"}).
		AddRow(7, "no-pedestrians", 3, `["f002","f007"]`, `{"class_filter":["a1"],"diversity":["f007"],"manual":["f002"]}`)
	mock.ExpectQuery(`SELECT \* FROM "curated_datasets" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs(7, 1).WillReturnRows(rows)

	var out dataset.CuratedDataset
	if err := store.Get(context.Background(), &out, orm.Where("id=?", 7)); err != nil {
		t.Fatal(err)
	}
	if out.Version != 3 || len(out.ExcludedFrameIDs) != 2 || out.ExclusionReasons.Manual[0] != "f002" {
		t.Fatalf("dataset = %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestAddCuratedDatasetVersion(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	core := dataset.NewCore(NewDB(db))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM "curated_datasets" WHERE source_job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO "curated_datasets" (.+) RETURNING (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	out, err := core.AddCuratedDataset(context.Background(), &dataset.AddCuratedDatasetInput{
		Name:                    " v3 ",
		SourceJobID:             "job-1",
		OriginalFrameCount:      100,
		OriginalAnnotationCount: 400,
		FilteredFrameCount:      96,
		FilteredAnnotationCount: 280,
		ExcludedFrameIDs:        []string{"f002", "f007", "f009", "f011"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Version != 3 || out.ID != 11 || out.Name != "v3" {
		t.Fatalf("dataset = %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestAddCuratedDatasetValidation(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	core := dataset.NewCore(NewDB(db))

	for _, in := range []dataset.AddCuratedDatasetInput{
		{Name: "", SourceJobID: "job"},
		{Name: "x", SourceJobID: ""},
		{Name: "x", SourceJobID: "job", OriginalFrameCount: 10, FilteredFrameCount: 11},
		{Name: "x", SourceJobID: "job", FilteredAnnotationCount: -1},
	} {
		if _, err := core.AddCuratedDataset(context.Background(), &in); err == nil {
			t.Errorf("AddCuratedDataset(%+v) expect error", in)
		}
	}
	// 校验失败时不访问数据库
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
