package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/pkg/core/logging"
)

// gRPC names of the grammar service
const (
	ServiceName = "chomsky.v1.GrammarService"
	CheckMethod = "/" + ServiceName + "/Check"
)

// GrammarServer is the server API of the grammar service. Messages are
// google.protobuf.Struct: request {sentence}, response {accepted, sentence,
// expected, found, message, tree}.
type GrammarServer interface {
	Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// GrammarServiceDesc describes the service for grpc.Server.RegisterService
var GrammarServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GrammarServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chomsky/v1/grammar.proto",
}

func checkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GrammarServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GrammarServer).Check(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterGrammarServer registers the grammar service implementation
func RegisterGrammarServer(s grpc.ServiceRegistrar, srv GrammarServer) {
	s.RegisterService(&GrammarServiceDesc, srv)
}

// GrammarService implements GrammarServer on top of a checker
type GrammarService struct {
	checker SentenceChecker
	prefix  string
	logger  *logging.Logger
}

// NewGrammarService creates the gRPC service. Sentences starting with
// commentPrefix are refused.
func NewGrammarService(c SentenceChecker, commentPrefix string) *GrammarService {
	return &GrammarService{checker: c, prefix: commentPrefix, logger: logging.New("grammar-service")}
}

// Check parses the sentence of the request
func (s *GrammarService) Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sentence, err := sentenceText(req.GetFields()["sentence"].GetStringValue(), s.prefix)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	v := s.checker.Check(sentence)
	if v.Err != nil {
		s.logger.Error("Check failed", "sentence", sentence, "error", v.Err)
		return nil, status.Error(codes.Internal, v.Err.Error())
	}

	resp, err := verdictToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func verdictToStruct(v checker.Verdict) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"accepted": v.Accepted,
		"sentence": v.Sentence,
		"expected": v.Expected,
		"found":    v.Found,
		"message":  v.Message,
		"tree":     v.Tree,
	})
}

func verdictFromStruct(s *structpb.Struct) checker.Verdict {
	f := s.GetFields()
	return checker.Verdict{
		Accepted: f["accepted"].GetBoolValue(),
		Sentence: f["sentence"].GetStringValue(),
		Expected: f["expected"].GetStringValue(),
		Found:    f["found"].GetStringValue(),
		Message:  f["message"].GetStringValue(),
		Tree:     f["tree"].GetStringValue(),
	}
}

// Client calls a remote grammar service
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a client over an established connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Check sends one sentence to the remote service
func (c *Client) Check(ctx context.Context, sentence string, opts ...grpc.CallOption) (checker.Verdict, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"sentence": sentence})
	if err != nil {
		return checker.Verdict{}, err
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, CheckMethod, req, resp, opts...); err != nil {
		return checker.Verdict{}, err
	}
	return verdictFromStruct(resp), nil
}
