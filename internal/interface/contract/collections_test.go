package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestDecodeNewCollectionAndEncodeRoundTrip(t *testing.T) {
	userID := uuid.New()
	req := CreateCollectionRequest{
		Name:        "research papers",
		Description: "ML papers",
		Metadata:    map[string]string{"team": "nlp"},
		Config:      CollectionConfigDTO{EmbeddingModel: "text-embedding-3-large", EmbeddingDim: 1536},
	}

	col := DecodeNewCollection(userID, req)
	col.ID = uuid.New()
	col.CreatedAt = time.Now()
	col.UpdatedAt = col.CreatedAt

	require.Equal(t, userID, col.UserID)
	require.Equal(t, "research papers", col.Name)
	require.Equal(t, 1536, col.Config.EmbeddingDim)

	resp := EncodeCollection(col)
	require.Equal(t, col.ID, resp.ID)
	require.Equal(t, "ML papers", resp.Description)
	require.Equal(t, "text-embedding-3-large", resp.Config.EmbeddingModel)
}

func TestApplyCollectionUpdatePartial(t *testing.T) {
	col := rag.Collection{Name: "old", Description: "old desc", Metadata: map[string]string{"a": "1"}}
	newName := "new"
	updated := ApplyCollectionUpdate(col, UpdateCollectionRequest{Name: &newName})

	require.Equal(t, "new", updated.Name)
	require.Equal(t, "old desc", updated.Description)
	require.Equal(t, map[string]string{"a": "1"}, updated.Metadata)
}

func TestEncodeCollectionListIncludesPagination(t *testing.T) {
	cols := []rag.Collection{{Name: "a"}, {Name: "b"}}
	resp := EncodeCollectionList(cols, 10, 0, 2)

	require.Len(t, resp.Collections, 2)
	require.Equal(t, Pagination{Limit: 10, Offset: 0, Total: 2}, resp.Pagination)
}
