package rpc

import (
	"strings"
	"testing"

	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestJSONCodecProtoMessage(t *testing.T) {
	var c jsonCodec
	b, err := c.Marshal(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "SERVING") {
		t.Fatalf("protojson = %s", b)
	}

	var out grpc_health_v1.HealthCheckResponse
	if err := c.Unmarshal([]byte(`{"status":"NOT_SERVING","extra":1}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.GetStatus() != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v", out.GetStatus())
	}
}

func TestJSONCodecPlain(t *testing.T) {
	var c jsonCodec
	b, err := c.Marshal(&AnalyzeRequest{JobID: "j", SampleCamera: "left"})
	if err != nil {
		t.Fatal(err)
	}
	var in AnalyzeRequest
	if err := c.Unmarshal(b, &in); err != nil {
		t.Fatal(err)
	}
	if in.JobID != "j" || in.SampleCamera != "left" {
		t.Fatalf("in = %+v", in)
	}
}
