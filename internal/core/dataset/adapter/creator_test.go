package adapter

import (
	"slices"
	"testing"

	"github.com/gowvp/curation/internal/core/dataset"
	"github.com/gowvp/curation/internal/core/review"
	"github.com/jinzhu/copier"
)

func TestRequestCopy(t *testing.T) {
	sim, motion := 0.85, 0.02
	req := review.CuratedDatasetRequest{
		Name:        "v1",
		SourceJobID: "job-1",
		FilterConfig: review.FilterConfig{
			ExcludedClasses:              []string{"pedestrian"},
			DiversityApplied:             true,
			DiversitySimilarityThreshold: &sim,
			DiversityMotionThreshold:     &motion,
			ExcludedFrameIndices:         []int{2, 7},
		},
		OriginalFrameCount: 100,
		FilteredFrameCount: 96,
		ExcludedFrameIDs:   []string{"f002", "f007"},
		ExclusionReasons: review.ExclusionReasons{
			Diversity: []string{"f007"},
			Manual:    []string{"f002"},
		},
	}

	var in dataset.AddCuratedDatasetInput
	if err := copier.CopyWithOption(&in, &req, copier.Option{DeepCopy: true}); err != nil {
		t.Fatal(err)
	}
	if in.SourceJobID != "job-1" || in.FilteredFrameCount != 96 {
		t.Fatalf("in = %+v", in)
	}
	if !slices.Equal(in.FilterConfig.ExcludedFrameIndices, []int{2, 7}) || !in.FilterConfig.DiversityApplied {
		t.Fatalf("filter config = %+v", in.FilterConfig)
	}
	if in.FilterConfig.DiversitySimilarityThreshold == nil || *in.FilterConfig.DiversitySimilarityThreshold != 0.85 {
		t.Fatal("similarity threshold lost")
	}
	if !slices.Equal(in.ExclusionReasons.Manual, []string{"f002"}) {
		t.Fatalf("reasons = %+v", in.ExclusionReasons)
	}

	// 深拷贝，修改请求不影响入库数据
	req.ExcludedFrameIDs[0] = "changed"
	if in.ExcludedFrameIDs[0] != "f002" {
		t.Fatal("slice shared with request")
	}
}
