package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gowvp/curation/internal/conf"
	"github.com/gowvp/curation/internal/core/dataset/store/datasetdb"
	"github.com/gowvp/curation/internal/core/job"
	"github.com/gowvp/curation/internal/core/job/store/jobdb"
	"github.com/gowvp/curation/internal/core/review"
	"github.com/gowvp/curation/internal/data"
	"github.com/ixugo/goddd/pkg/reason"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := conf.DefaultConfig()
	cfg.Data.Database.Dsn = filepath.Join(t.TempDir(), "data.db")
	cfg.Curation.SessionIdleTimeout = 0
	cfg.Curation.FailedJobRetainDays = 0
	db, err := data.SetupDB(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	jobCore := NewJobCore(jobdb.NewDB(db).AutoMigrate(true), &cfg)
	datasetCore := NewDatasetCore(datasetdb.NewDB(db).AutoMigrate(true))
	reviewCore, cancel := NewReviewCore(&cfg, jobCore, datasetCore, nil)
	t.Cleanup(cancel)

	return NewHTTPHandler(&Usecase{
		Conf:               &cfg,
		DB:                 db,
		JobAPI:             NewJobAPI(jobCore),
		DatasetAPI:         NewDatasetAPI(datasetCore),
		ReviewAPI:          NewReviewAPI(reviewCore),
		PipelineWebhookAPI: NewPipelineWebhookAPI(jobCore),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: %v body[%s]", method, path, err, w.Body.String())
		}
	}
	return w.Code
}

func pipelineFrames(n int) []job.IngestFrame {
	frames := make([]job.IngestFrame, 0, n)
	for i := range n {
		cls := "car"
		if i%2 == 0 {
			cls = "pedestrian"
		}
		frames = append(frames, job.IngestFrame{
			ID:             fmt.Sprintf("f%03d", i),
			SequenceIndex:  i,
			SVO2FrameIndex: i * 3,
			Annotations: []job.IngestAnnotation{
				{ID: fmt.Sprintf("a%03d", i), ClassName: cls, Confidence: 0.9},
			},
		})
	}
	return frames
}

func TestCurationFlow(t *testing.T) {
	h := newTestHandler(t)

	if code := do(t, h, http.MethodPost, "/pipeline/started", PipelineStartedInput{JobID: "job-1", Name: "drive"}, nil); code != http.StatusOK {
		t.Fatalf("started = %d", code)
	}

	// 任务未完成时不能审核
	if code := do(t, h, http.MethodPost, "/reviews", openReviewInput{JobID: "job-1"}, nil); code == http.StatusOK {
		t.Fatal("review opened on unfinished job")
	}

	in := PipelineFramesInput{JobID: "job-1", Frames: pipelineFrames(10), Last: true}
	if code := do(t, h, http.MethodPost, "/pipeline/frames", in, nil); code != http.StatusOK {
		t.Fatalf("frames = %d", code)
	}

	var j struct {
		Status          string `json:"status"`
		FrameCount      int    `json:"frame_count"`
		AnnotationCount int    `json:"annotation_count"`
	}
	if code := do(t, h, http.MethodGet, "/jobs/job-1", nil, &j); code != http.StatusOK {
		t.Fatalf("get job = %d", code)
	}
	if j.Status != job.StatusCompleted || j.FrameCount != 10 || j.AnnotationCount != 10 {
		t.Fatalf("job = %+v", j)
	}

	var st review.State
	if code := do(t, h, http.MethodPost, "/reviews", openReviewInput{JobID: "job-1"}, &st); code != http.StatusOK {
		t.Fatalf("open = %d", code)
	}
	sid := st.SessionID
	if st.TotalFrames != 10 || st.Summary.OriginalAnnotationCount != 10 {
		t.Fatalf("state = %+v", st)
	}

	var tg toggleOutput
	do(t, h, http.MethodPost, "/reviews/"+sid+"/frames/toggle", frameToggleInput{FrameIndex: 3}, &tg)
	if !tg.Excluded || tg.State.Summary.FilteredFrameCount != 9 {
		t.Fatalf("toggle frame = %+v", tg)
	}
	do(t, h, http.MethodPost, "/reviews/"+sid+"/classes/toggle", classInput{ClassName: "car"}, &tg)
	if !tg.Excluded {
		t.Fatal("car not excluded")
	}

	var sum summaryOutput
	if code := do(t, h, http.MethodGet, "/reviews/"+sid+"/summary", nil, &sum); code != http.StatusOK {
		t.Fatalf("summary = %d", code)
	}
	// 5 个 car 检测框，其中 a003 所在帧被手动排除但仍归属类别过滤
	if len(sum.ExclusionReasons.ClassFilter) != 5 || sum.Summary.FilteredAnnotationCount != 5 {
		t.Fatalf("summary = %+v", sum)
	}

	if code := do(t, h, http.MethodPost, "/reviews/"+sid+"/playback/speed", speedInput{Speed: 3}, nil); code == http.StatusOK {
		t.Fatal("speed 3 accepted")
	}

	// 未配置分析服务
	if code := do(t, h, http.MethodPost, "/reviews/"+sid+"/diversity/analyze", analyzeInput{}, nil); code == http.StatusOK {
		t.Fatal("analyze without analyzer")
	}

	if code := do(t, h, http.MethodPost, "/reviews/"+sid+"/submit", submitInput{Name: "  "}, nil); code == http.StatusOK {
		t.Fatal("blank name accepted")
	}
	var sub submitOutput
	for want := 1; want <= 2; want++ {
		if code := do(t, h, http.MethodPost, "/reviews/"+sid+"/submit", submitInput{Name: "no-car"}, &sub); code != http.StatusOK {
			t.Fatalf("submit = %d", code)
		}
		if sub.Dataset == nil || sub.Dataset.Version != want {
			t.Fatalf("dataset = %+v, want version %d", sub.Dataset, want)
		}
	}

	var ds struct {
		FilteredFrameCount int      `json:"filtered_frame_count"`
		ExcludedFrameIDs   []string `json:"excluded_frame_ids"`
	}
	if code := do(t, h, http.MethodGet, fmt.Sprintf("/datasets/%d", sub.Dataset.ID), nil, &ds); code != http.StatusOK {
		t.Fatalf("get dataset = %d", code)
	}
	if ds.FilteredFrameCount != 9 || len(ds.ExcludedFrameIDs) != 1 || ds.ExcludedFrameIDs[0] != "f003" {
		t.Fatalf("dataset = %+v", ds)
	}

	if code := do(t, h, http.MethodDelete, "/reviews/"+sid, nil, nil); code != http.StatusOK {
		t.Fatalf("close = %d", code)
	}
	if code := do(t, h, http.MethodGet, "/reviews/"+sid, nil, nil); code == http.StatusOK {
		t.Fatal("closed session still reachable")
	}
}

func TestPipelineKeepsCompletedJob(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/pipeline/started", PipelineStartedInput{JobID: "job-1"}, nil)
	in := PipelineFramesInput{JobID: "job-1", Frames: pipelineFrames(3), Last: true}
	if code := do(t, h, http.MethodPost, "/pipeline/frames", in, nil); code != http.StatusOK {
		t.Fatalf("frames = %d", code)
	}

	if code := do(t, h, http.MethodPost, "/pipeline/started", PipelineStartedInput{JobID: "job-1"}, nil); code == http.StatusOK {
		t.Fatal("completed job restarted")
	}
	if code := do(t, h, http.MethodPost, "/pipeline/failed", PipelineFailedInput{JobID: "job-1", Reason: "late"}, nil); code == http.StatusOK {
		t.Fatal("completed job marked failed")
	}
	if code := do(t, h, http.MethodPut, "/jobs/job-1", job.EditJobInput{Status: job.StatusPending}, nil); code == http.StatusOK {
		t.Fatal("completed job edited back to pending")
	}

	var j struct {
		Status     string `json:"status"`
		FrameCount int    `json:"frame_count"`
	}
	if code := do(t, h, http.MethodGet, "/jobs/job-1", nil, &j); code != http.StatusOK {
		t.Fatalf("get job = %d", code)
	}
	if j.Status != job.StatusCompleted || j.FrameCount != 3 {
		t.Fatalf("job = %+v", j)
	}
}

func TestReviewErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"not found", review.ErrSessionNotFound, reason.ErrNotFound},
		{"analysis failed", fmt.Errorf("%w: %w", review.ErrAnalysisFailed, errors.New("rpc timeout")), reason.ErrServiceUnavailable},
		{"no analyzer", review.ErrNoAnalyzer, reason.ErrServer},
		{"invalid speed", review.ErrInvalidSpeed, reason.ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := reviewErr(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("reviewErr(%v) = %v", tc.err, got)
			}
		})
	}
	if reviewErr(nil) != nil {
		t.Fatal("nil error mapped")
	}
}
