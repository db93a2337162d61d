package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/miradorstack/incident-rca/internal/models"
)

const (
	// AnalyzerServiceName is the fully-qualified gRPC service name.
	AnalyzerServiceName = "incidentrca.v1.Analyzer"

	analyzeMethod     = "/" + AnalyzerServiceName + "/Analyze"
	investigateMethod = "/" + AnalyzerServiceName + "/Investigate"
)

// AnalyzeRequest carries a caller-supplied signal batch.
type AnalyzeRequest struct {
	Signals models.SignalBatch    `json:"signals"`
	Options models.AnalyzeOptions `json:"options"`
}

// InvestigateRequest asks the service to collect signals itself before analysing them.
type InvestigateRequest struct {
	Namespace string `json:"namespace"`
	// At is the reference instant (RFC3339); empty means now.
	At      string                `json:"at,omitempty"`
	Options models.AnalyzeOptions `json:"options"`
}

// AnalyzerServer is the server API for the Analyzer service.
type AnalyzerServer interface {
	Analyze(context.Context, *AnalyzeRequest) (*models.AnalysisResult, error)
	Investigate(context.Context, *InvestigateRequest) (*models.AnalysisResult, error)
}

// RegisterAnalyzerServer registers srv on s.
func RegisterAnalyzerServer(s grpc.ServiceRegistrar, srv AnalyzerServer) {
	s.RegisterService(&AnalyzerServiceDesc, srv)
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AnalyzeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AnalyzerServer).Analyze(ctx, req.(*AnalyzeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func investigateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InvestigateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).Investigate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: investigateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AnalyzerServer).Investigate(ctx, req.(*InvestigateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AnalyzerServiceDesc describes the Analyzer service for grpc.Server registration.
var AnalyzerServiceDesc = grpc.ServiceDesc{
	ServiceName: AnalyzerServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "Investigate", Handler: investigateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "incidentrca/v1/analyzer",
}

// AnalyzerClient is the client API for the Analyzer service.
type AnalyzerClient struct {
	cc grpc.ClientConnInterface
}

// NewAnalyzerClient wraps cc.
func NewAnalyzerClient(cc grpc.ClientConnInterface) *AnalyzerClient {
	return &AnalyzerClient{cc: cc}
}

// Analyze calls Analyzer/Analyze with the JSON codec.
func (c *AnalyzerClient) Analyze(ctx context.Context, in *AnalyzeRequest, opts ...grpc.CallOption) (*models.AnalysisResult, error) {
	out := new(models.AnalysisResult)
	if err := c.cc.Invoke(ctx, analyzeMethod, in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Investigate calls Analyzer/Investigate with the JSON codec.
func (c *AnalyzerClient) Investigate(ctx context.Context, in *InvestigateRequest, opts ...grpc.CallOption) (*models.AnalysisResult, error) {
	out := new(models.AnalysisResult)
	if err := c.cc.Invoke(ctx, investigateMethod, in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnalyzerClient) callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
