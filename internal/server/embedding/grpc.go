package embedding

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/server/embedding/embeddingpb"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCFetcher calls EmbeddingService.UserEmbedding over a shared connection.
type GRPCFetcher struct {
	client embeddingpb.EmbeddingServiceClient
}

func NewGRPCFetcher(client embeddingpb.EmbeddingServiceClient) *GRPCFetcher {
	return &GRPCFetcher{client: client}
}

func (f *GRPCFetcher) Fetch(ctx context.Context, userID int64, req Request, binaryOnly bool) (*Result, error) {
	in, err := structpb.NewStruct(req.Fields(userID))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}

	out, err := f.client.UserEmbedding(ctx, in)
	if err != nil {
		st, _ := status.FromError(err)
		return nil, &ProviderError{Code: st.Code(), Message: st.Message()}
	}

	return packed(out.GetValue(), req.DType, binaryOnly)
}
