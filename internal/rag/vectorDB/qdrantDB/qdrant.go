package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const upsertBatchSize = 256

// every Create gets its own collection, dropped again when the index closes
type ClientHolder struct {
	QObj   *qdrant.Client
	logger *logger_i.Logger
}

func NewClientHolder(ctx context.Context, cfg config.QdrantConfig) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(cfg.PoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, err
	}
	go closeQdrant(ctx, client, logger)
	logger.Info("Qdrant client created", "host", cfg.Host, "port", cfg.Port)
	return &ClientHolder{QObj: client, logger: logger}, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client, logger *logger_i.Logger) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Name() string { return config.VectorBackendQdrant }

func (db *ClientHolder) Create(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32, metric string) (vectorDB.Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	distance, err := distanceFor(metric)
	if err != nil {
		return nil, err
	}

	name := config.QdrantCollectionPrefix + uuid.NewString()
	log := db.logger.WithContext(ctx).With("collection", name)

	idx := &index{db: db, collection: name, size: len(chunks)}
	if len(chunks) == 0 {
		// nothing to store; an empty index never reaches qdrant
		return idx, nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(vectors[0])),
			Distance: distance,
		}),
	})
	if err != nil {
		log.Error("could not create collection", "error", err)
		return nil, err
	}
	idx.created.Store(true)

	if err := db.upsert(ctx, name, chunks, vectors); err != nil {
		log.Error("upsert failed, dropping collection", "error", err)
		_ = idx.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	log.Debug("collection populated", "points", len(chunks))
	return idx, nil
}

func (db *ClientHolder) upsert(ctx context.Context, collection string, chunks []commonModels.Chunk, vectors [][]float32) error {
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			payload, err := qdrant.TryValueMap(map[string]any{
				"content":  chunks[i].Text,
				"position": chunks[i].Position,
				"offset":   chunks[i].Offset,
			})
			if err != nil {
				return fmt.Errorf("chunk %d payload: %w", i, err)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(chunks[i].Position)),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: payload,
			})
		}

		_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("qdrant upsert failed: %w", err)
		}
	}
	return nil
}

func distanceFor(metric string) (qdrant.Distance, error) {
	switch metric {
	case config.MetricCosine, "":
		return qdrant.Distance_Cosine, nil
	case config.MetricDot:
		return qdrant.Distance_Dot, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unknown similarity metric %q", metric)
	}
}

type index struct {
	db         *ClientHolder
	collection string
	size       int
	created    atomic.Bool
}

func (i *index) Len() int { return i.size }

// Query over-fetches so that ties at the k boundary can still be resolved by
// position once qdrant's own ordering is replaced with ours.
func (i *index) Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if i.size == 0 || k <= 0 {
		return []commonModels.ScoredChunk{}, nil
	}
	limit := min(2*k, i.size)
	result, err := i.db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		i.db.logger.WithContext(ctx).Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	hits := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		content, ok := hit.Payload["content"]
		if !ok {
			return nil, errors.New("qdrant point without content payload")
		}
		hits = append(hits, commonModels.ScoredChunk{
			Chunk: commonModels.Chunk{
				Text:     content.GetStringValue(),
				Position: int(hit.Payload["position"].GetIntegerValue()),
				Offset:   int(hit.Payload["offset"].GetIntegerValue()),
			},
			Score: hit.Score,
		})
	}
	vectorDB.SortScored(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (i *index) Close(ctx context.Context) error {
	if !i.created.CompareAndSwap(true, false) {
		return nil
	}
	if err := i.db.QObj.DeleteCollection(ctx, i.collection); err != nil {
		i.db.logger.Error("could not drop collection", "collection", i.collection, "error", err)
		return err
	}
	return nil
}
