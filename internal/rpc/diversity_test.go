package rpc

import (
	"context"
	"errors"
	"net"
	"slices"
	"testing"
	"time"

	"github.com/gowvp/curation/internal/core/review"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type diversityServer interface {
	Analyze(context.Context, *AnalyzeRequest) (*AnalyzeResponse, error)
}

var diversityServiceDesc = grpc.ServiceDesc{
	ServiceName: DiversityServiceName,
	HandlerType: (*diversityServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Analyze",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				var in AnalyzeRequest
				if err := dec(&in); err != nil {
					return nil, err
				}
				return srv.(diversityServer).Analyze(ctx, &in)
			},
		},
	},
}

type fakeDiversity struct {
	last  *AnalyzeRequest
	resp  *AnalyzeResponse
	err   error
	delay time.Duration
}

func (f *fakeDiversity) Analyze(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error) {
	f.last = in
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	return f.resp, f.err
}

func newTestClient(t *testing.T, srv *fakeDiversity, opts ...DiversityOption) *DiversityClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	s.RegisterService(&diversityServiceDesc, srv)
	hs := health.NewServer()
	hs.SetServingStatus(DiversityServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, hs)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	opts = append(opts, WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})))
	cli, err := NewDiversityClient("passthrough:///bufnet", opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestAnalyzeDiversity(t *testing.T) {
	srv := &fakeDiversity{resp: &AnalyzeResponse{
		SelectedFrameIndices: []int{0, 1, 2},
		ExcludedFrameIndices: []int{7, 9, 11},
		Clusters:             []review.DiversityCluster{{ClusterID: 1, FrameIndices: []int{6, 7}, RepresentativeIndex: 6}},
		DuplicatePairsFound:  3,
		ReductionPercent:     3,
	}}
	cli := newTestClient(t, srv)

	res, err := cli.AnalyzeDiversity(context.Background(), "job-1", review.DiversityThresholds{Similarity: 0.9, Motion: 0.05, SampleCamera: review.CameraRight})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.ExcludedFrameIndices, []int{7, 9, 11}) || len(res.Clusters) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if srv.last.JobID != "job-1" || srv.last.SimilarityThreshold != 0.9 || srv.last.SampleCamera != review.CameraRight {
		t.Fatalf("request = %+v", srv.last)
	}
}

func TestAnalyzeDefaults(t *testing.T) {
	srv := &fakeDiversity{resp: &AnalyzeResponse{}}
	cli := newTestClient(t, srv)

	if _, err := cli.Analyze(context.Background(), &AnalyzeRequest{JobID: "job"}); err != nil {
		t.Fatal(err)
	}
	if srv.last.SimilarityThreshold != 0.85 || srv.last.MotionThreshold != 0.02 || srv.last.SampleCamera != "left" {
		t.Fatalf("defaults not applied: %+v", srv.last)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	srv := &fakeDiversity{err: status.Error(codes.Unavailable, "gpu busy")}
	cli := newTestClient(t, srv)
	if _, err := cli.AnalyzeDiversity(context.Background(), "job", review.DiversityThresholds{}); status.Code(err) != codes.Unavailable {
		t.Fatalf("err = %v", err)
	}

	srv.err = nil
	srv.resp = &AnalyzeResponse{Error: "svo2 file missing"}
	if _, err := cli.AnalyzeDiversity(context.Background(), "job", review.DiversityThresholds{}); err == nil || err.Error() != "svo2 file missing" {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	srv := &fakeDiversity{resp: &AnalyzeResponse{}, delay: time.Second}
	cli := newTestClient(t, srv, WithTimeout(50*time.Millisecond))
	_, err := cli.AnalyzeDiversity(context.Background(), "job", review.DiversityThresholds{})
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("err = %v", err)
	}
}

func TestPing(t *testing.T) {
	cli := newTestClient(t, &fakeDiversity{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestEngineDropsFailedAnalysis(t *testing.T) {
	srv := &fakeDiversity{err: status.Error(codes.Internal, "boom")}
	cli := newTestClient(t, srv)

	s := review.NewSession("s", review.WithAnalyzer(cli))
	s.SetJobID("job")
	s.SetFrames([]review.FrameThumbnail{{FrameID: "f0"}, {FrameID: "f1", SequenceIndex: 1}}, 2)
	_, err := s.Analyze(context.Background(), review.DiversityThresholds{})
	if !errors.Is(err, review.ErrAnalysisFailed) {
		t.Fatalf("err = %v", err)
	}
	if s.Diversity().Status != review.DiversityFailed {
		t.Fatalf("status = %s", s.Diversity().Status)
	}
}
