package rpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gowvp/curation/internal/core/review"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// DiversityServiceName 分析服务名，同时用于健康检查
	DiversityServiceName = "curation.DiversityService"
	analyzeMethod        = "/" + DiversityServiceName + "/Analyze"
)

var _ review.DiversityAnalyzer = (*DiversityClient)(nil)

// AnalyzeRequest 多样性分析请求
type AnalyzeRequest struct {
	JobID               string  `json:"job_id"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MotionThreshold     float64 `json:"motion_threshold"`
	SampleCamera        string  `json:"sample_camera"`
}

// AnalyzeResponse 多样性分析结果，error 非空表示分析失败
type AnalyzeResponse struct {
	SelectedFrameIndices []int                     `json:"selected_frame_indices"`
	ExcludedFrameIndices []int                     `json:"excluded_frame_indices"`
	Clusters             []review.DiversityCluster `json:"clusters"`
	DuplicatePairsFound  int                       `json:"duplicate_pairs_found"`
	LowMotionFrames      int                       `json:"low_motion_frames"`
	ReductionPercent     float64                   `json:"reduction_percent"`
	Error                string                    `json:"error,omitempty"`
}

// DiversityClient 封装 gRPC 多样性分析服务客户端
type DiversityClient struct {
	conn    *grpc.ClientConn
	health  grpc_health_v1.HealthClient
	timeout time.Duration
}

// DiversityOption 客户端可选参数
type DiversityOption func(*diversityOptions)

type diversityOptions struct {
	timeout  time.Duration
	dialOpts []grpc.DialOption
}

// WithTimeout 单次分析超时，默认 5 分钟
func WithTimeout(d time.Duration) DiversityOption {
	return func(o *diversityOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithDialOptions 追加拨号参数
func WithDialOptions(opts ...grpc.DialOption) DiversityOption {
	return func(o *diversityOptions) {
		o.dialOpts = append(o.dialOpts, opts...)
	}
}

// NewDiversityClient 创建多样性分析客户端实例，连接为惰性建立
func NewDiversityClient(addr string, opts ...DiversityOption) (*DiversityClient, error) {
	o := diversityOptions{timeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, o.dialOpts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	c := DiversityClient{
		conn:    conn,
		health:  grpc_health_v1.NewHealthClient(conn),
		timeout: o.timeout,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			slog.Error("diversity HealthCheck", "addr", addr, "err", err)
			return
		}
		slog.Info("diversity HealthCheck OK", "addr", addr)
	}()
	return &c, nil
}

// Ping 健康检查
func (c *DiversityClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: DiversityServiceName}, grpc.CallContentSubtype("proto"))
	if err != nil {
		return err
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return errors.New("diversity service " + resp.GetStatus().String())
	}
	return nil
}

// Analyze 调用分析服务，阈值为 0 时使用默认值
func (c *DiversityClient) Analyze(ctx context.Context, in *AnalyzeRequest) (*AnalyzeResponse, error) {
	if in.SimilarityThreshold == 0 {
		in.SimilarityThreshold = review.DefaultSimilarityThreshold
	}
	if in.MotionThreshold == 0 {
		in.MotionThreshold = review.DefaultMotionThreshold
	}
	if in.SampleCamera == "" {
		in.SampleCamera = review.CameraLeft
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out AnalyzeResponse
	if err := c.conn.Invoke(ctx, analyzeMethod, in, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	return &out, nil
}

// AnalyzeDiversity implements review.DiversityAnalyzer.
func (c *DiversityClient) AnalyzeDiversity(ctx context.Context, jobID string, t review.DiversityThresholds) (*review.DiversityAnalysisResult, error) {
	resp, err := c.Analyze(ctx, &AnalyzeRequest{
		JobID:               jobID,
		SimilarityThreshold: t.Similarity,
		MotionThreshold:     t.Motion,
		SampleCamera:        t.SampleCamera,
	})
	if err != nil {
		slog.ErrorContext(ctx, "diversity analyze", "job_id", jobID, "err", err)
		return nil, err
	}
	return &review.DiversityAnalysisResult{
		SelectedFrameIndices: resp.SelectedFrameIndices,
		ExcludedFrameIndices: resp.ExcludedFrameIndices,
		Clusters:             resp.Clusters,
		DuplicatePairsFound:  resp.DuplicatePairsFound,
		LowMotionFrames:      resp.LowMotionFrames,
		ReductionPercent:     resp.ReductionPercent,
	}, nil
}

// Close 关闭连接
func (c *DiversityClient) Close() error {
	return c.conn.Close()
}
