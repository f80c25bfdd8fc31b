package contract

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

func TestDecodeRetrievalRequestDefaults(t *testing.T) {
	userID := uuid.New()
	collectionID := uuid.New()

	req := DecodeRetrievalRequest(userID, RetrievalRequest{
		Query:        "what is hybrid retrieval",
		CollectionID: collectionID,
	})

	require.Equal(t, retrieval.ModeSemantic, req.Mode)
	require.Equal(t, 10, req.TopK)
	require.Equal(t, userID, req.UserID)
	require.Equal(t, collectionID, req.CollectionID)
}

func TestDecodeRetrievalRequestHonorsExplicitModeAndTopK(t *testing.T) {
	req := DecodeRetrievalRequest(uuid.New(), RetrievalRequest{
		Query: "x", Mode: "hybrid", TopK: 25, CollectionID: uuid.New(),
	})

	require.Equal(t, retrieval.ModeHybrid, req.Mode)
	require.Equal(t, 25, req.TopK)
}

func TestEncodeRetrievalResponse(t *testing.T) {
	chunkID := uuid.New()
	resp := EncodeRetrievalResponse(retrieval.Response{
		Query: "q", Mode: retrieval.ModeHybrid, TotalResults: 1,
		Results: []retrieval.Result{{ChunkID: chunkID, Content: "hello", Score: 0.9}},
	})

	require.Equal(t, "hybrid", resp.Mode)
	require.Len(t, resp.Results, 1)
	require.Equal(t, chunkID, resp.Results[0].ChunkID)
	require.Equal(t, 0.9, resp.Results[0].Score)
}
