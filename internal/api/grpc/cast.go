// Package grpc provides the gRPC API for the typecast service.
package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/arkilian/typecast/internal/casts"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/pkg/types"
)

// TypeParser turns a type string into a logical type.
type TypeParser interface {
	ParseType(ctx context.Context, s string) (types.LogicalType, error)
}

// CastServer implements CastServiceServer.
type CastServer struct {
	parser   TypeParser
	resolve  casts.ResolveFunc
	maxBatch int
}

// NewCastServer creates a new gRPC cast server. A nil resolve uses
// casts.Resolve; maxBatch <= 0 disables the batch limit.
func NewCastServer(parser TypeParser, resolve casts.ResolveFunc, maxBatch int) *CastServer {
	if resolve == nil {
		resolve = casts.Resolve
	}
	return &CastServer{
		parser:   parser,
		resolve:  resolve,
		maxBatch: maxBatch,
	}
}

// CheckCast handles a single cast check.
func (s *CastServer) CheckCast(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	requestID := extractRequestID(ctx)

	fields := req.GetFields()
	source := fields["source"].GetStringValue()
	target := fields["target"].GetStringValue()
	if source == "" || target == "" {
		return nil, status.Error(codes.InvalidArgument, "source and target are required")
	}

	result, err := s.check(ctx, source, target)
	if err != nil {
		return nil, toStatus(err)
	}
	result["request_id"] = requestID

	return structpb.NewStruct(result)
}

// CheckCastBatch handles a batch of cast checks. A bad pair fails only its
// own entry.
func (s *CastServer) CheckCastBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	requestID := extractRequestID(ctx)

	pairs := req.GetFields()["pairs"].GetListValue().GetValues()
	if len(pairs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "pairs must not be empty")
	}
	if s.maxBatch > 0 && len(pairs) > s.maxBatch {
		return nil, status.Errorf(codes.InvalidArgument, "batch of %d pairs exceeds the limit of %d", len(pairs), s.maxBatch)
	}

	results := make([]interface{}, len(pairs))
	for i, v := range pairs {
		fields := v.GetStructValue().GetFields()
		source := fields["source"].GetStringValue()
		target := fields["target"].GetStringValue()

		var err error
		var result map[string]interface{}
		if source == "" || target == "" {
			err = tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, "source and target are required")
		} else {
			result, err = s.check(ctx, source, target)
		}
		if err != nil {
			result = map[string]interface{}{
				"source": source,
				"target": target,
				"error":  err.Error(),
				"code":   tcerrors.GetCode(err),
			}
		}
		results[i] = result
	}

	return structpb.NewStruct(map[string]interface{}{
		"results":    results,
		"request_id": requestID,
	})
}

func (s *CastServer) check(ctx context.Context, sourceStr, targetStr string) (map[string]interface{}, error) {
	source, err := s.parser.ParseType(ctx, sourceStr)
	if err != nil {
		return nil, err
	}
	target, err := s.parser.ParseType(ctx, targetStr)
	if err != nil {
		return nil, err
	}

	d := s.resolve(source, target)
	return map[string]interface{}{
		"source":        source.String(),
		"target":        target.String(),
		"implicit":      d.Implicit,
		"explicit":      d.Explicit,
		"rule":          string(d.Rule),
		"implicit_rule": string(d.ImplicitRule),
	}, nil
}

// toStatus maps a typecast error onto a gRPC status.
func toStatus(err error) error {
	var te *tcerrors.TypecastError
	if !errors.As(err, &te) {
		return status.Error(codes.Internal, err.Error())
	}
	switch te.Code {
	case tcerrors.CodeTypeNotFound, tcerrors.CodeTableNotFound,
		tcerrors.CodeVersionNotFound, tcerrors.CodeObjectNotFound:
		return status.Error(codes.NotFound, err.Error())
	}
	switch te.Category {
	case tcerrors.ErrCategoryValidation, tcerrors.ErrCategoryParse:
		return status.Error(codes.InvalidArgument, err.Error())
	case tcerrors.ErrCategoryCatalog:
		if te.Code == tcerrors.CodeCatalogBusy {
			return status.Error(codes.Unavailable, err.Error())
		}
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// extractRequestID extracts or generates a request ID from the gRPC context
// and echoes it in the response header.
func extractRequestID(ctx context.Context) string {
	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			requestID = ids[0]
		}
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	grpc.SetHeader(ctx, metadata.Pairs("x-request-id", requestID))
	return requestID
}
