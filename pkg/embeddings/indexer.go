package embeddings

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/restaurantlens/restaurantlens/pkg/logger"
)

// DefaultCollection is the vector collection holding the review dataset.
const DefaultCollection = "restaurant_reviews"

// DefaultBatchSize is how many documents are embedded and upserted per
// round trip.
const DefaultBatchSize = 50

// Document is a unit of text to index.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// IndexerConfig configures the indexing service.
type IndexerConfig struct {
	Collection  string `yaml:"collection" env:"VECTOR_COLLECTION" default:"restaurant_reviews"`
	BatchSize   int    `yaml:"batch_size" env:"INDEX_BATCH_SIZE" default:"50"`
	ReindexCron string `yaml:"reindex_cron" env:"REINDEX_CRON" default:""` // empty disables
}

// IndexerStats tracks indexing and search activity.
type IndexerStats struct {
	DocumentsIndexed int64     `json:"documents_indexed"`
	CacheHits        int64     `json:"cache_hits"`
	CacheMisses      int64     `json:"cache_misses"`
	Searches         int64     `json:"searches"`
	LastIndexedAt    time.Time `json:"last_indexed_at"`
}

// Indexer embeds documents and maintains the vector collection.
type Indexer struct {
	provider Provider
	store    VectorStore
	cache    EmbeddingCache // nil disables caching
	config   *IndexerConfig
	log      *logger.Logger

	mu    sync.Mutex
	stats IndexerStats

	scheduler *cron.Cron
}

// NewIndexer creates an indexing service. cache may be nil.
func NewIndexer(provider Provider, store VectorStore, cache EmbeddingCache, config *IndexerConfig, log *logger.Logger) (*Indexer, error) {
	if provider == nil {
		return nil, &Error{Op: "indexer", Message: "embedding provider is required"}
	}
	if store == nil {
		return nil, &Error{Op: "indexer", Message: "vector store is required"}
	}
	if config == nil {
		config = &IndexerConfig{}
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &Indexer{
		provider: provider,
		store:    store,
		cache:    cache,
		config:   config,
		log:      log.WithComponent("indexer"),
	}, nil
}

// Collection returns the collection name in use.
func (ix *Indexer) Collection() string {
	return ix.config.Collection
}

// IndexDocuments embeds and stores the documents in batches. Embeddings
// found in the cache skip the provider round trip.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := ix.store.CreateCollection(ctx, ix.config.Collection, ix.provider.GetDimensions()); err != nil {
		return err
	}

	start := time.Now()
	indexed := 0

	for offset := 0; offset < len(docs); offset += ix.config.BatchSize {
		end := offset + ix.config.BatchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := ix.indexBatch(ctx, docs[offset:end]); err != nil {
			return err
		}
		indexed += end - offset
	}

	ix.mu.Lock()
	ix.stats.DocumentsIndexed += int64(indexed)
	ix.stats.LastIndexedAt = time.Now()
	ix.mu.Unlock()

	ix.log.Info("indexed %d documents in %s", indexed, time.Since(start).Round(time.Millisecond))
	return nil
}

func (ix *Indexer) indexBatch(ctx context.Context, docs []Document) error {
	vectors := make([]*DocumentVector, len(docs))

	// Resolve cached embeddings first, then embed the misses in one call.
	var missTexts []string
	var missIdx []int

	for i, doc := range docs {
		if ix.cache != nil {
			key := CacheKey(ix.provider.GetModelName(), doc.Content)
			if vec, err := ix.cache.Get(ctx, key); err == nil {
				vectors[i] = ix.newVector(doc, vec)
				ix.mu.Lock()
				ix.stats.CacheHits++
				ix.mu.Unlock()
				continue
			}
			ix.mu.Lock()
			ix.stats.CacheMisses++
			ix.mu.Unlock()
		}
		missTexts = append(missTexts, doc.Content)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		embedded, err := ix.provider.GenerateBatchEmbeddings(ctx, missTexts)
		if err != nil {
			return err
		}

		for j, vec := range embedded {
			doc := docs[missIdx[j]]
			vectors[missIdx[j]] = ix.newVector(doc, vec)

			if ix.cache != nil {
				key := CacheKey(ix.provider.GetModelName(), doc.Content)
				if err := ix.cache.Set(ctx, key, vec, 0); err != nil {
					ix.log.Warn("failed to cache embedding: %v", err)
				}
			}
		}
	}

	return ix.store.UpsertVectors(ctx, ix.config.Collection, vectors)
}

func (ix *Indexer) newVector(doc Document, vec []float32) *DocumentVector {
	return &DocumentVector{
		ID:        doc.ID,
		Content:   doc.Content,
		Vector:    vec,
		Metadata:  doc.Metadata,
		CreatedAt: time.Now(),
	}
}

// Search embeds the query text and returns the most similar documents.
func (ix *Indexer) Search(ctx context.Context, query string, opts SearchOptions) ([]*SearchResult, error) {
	vec, err := ix.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := ix.store.SearchSimilar(ctx, ix.config.Collection, vec, opts)
	if err != nil {
		return nil, err
	}

	ix.mu.Lock()
	ix.stats.Searches++
	ix.mu.Unlock()
	return results, nil
}

// Info returns collection statistics.
func (ix *Indexer) Info(ctx context.Context) (*CollectionInfo, error) {
	return ix.store.Info(ctx, ix.config.Collection)
}

// Stats returns a copy of the indexer counters.
func (ix *Indexer) Stats() IndexerStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.stats
}

// StartScheduledReindex runs source on the configured cron expression
// and reindexes its documents. No-op when no expression is configured.
func (ix *Indexer) StartScheduledReindex(source func(ctx context.Context) ([]Document, error)) error {
	if ix.config.ReindexCron == "" {
		return nil
	}

	ix.scheduler = cron.New()
	_, err := ix.scheduler.AddFunc(ix.config.ReindexCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		docs, err := source(ctx)
		if err != nil {
			ix.log.Error("scheduled reindex: failed to load documents: %v", err)
			return
		}
		if err := ix.IndexDocuments(ctx, docs); err != nil {
			ix.log.Error("scheduled reindex failed: %v", err)
		}
	})
	if err != nil {
		return &Error{Op: "indexer", Message: "invalid reindex cron expression", Cause: err}
	}

	ix.scheduler.Start()
	ix.log.Info("scheduled reindex enabled: cron=%q", ix.config.ReindexCron)
	return nil
}

// Stop halts the reindex scheduler if running.
func (ix *Indexer) Stop() {
	if ix.scheduler != nil {
		ix.scheduler.Stop()
	}
}
