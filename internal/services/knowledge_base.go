package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
)

// Reference document types stored in the knowledge base.
const (
	DocTypeResumeRubric    = "resume_rubric"
	DocTypeInterviewRubric = "interview_rubric"
	DocTypeJobDescription  = "job_description"
	DocTypeSampleAnswer    = "sample_answer"
)

var DocTypes = []string{DocTypeResumeRubric, DocTypeInterviewRubric, DocTypeJobDescription, DocTypeSampleAnswer}

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns prompt context relevant to query, restricted to docTypes.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string, docTypes []string) (string, error)
}

type SearchResult struct {
	ID      string
	Score   float32
	Text    string
	DocType string
	Chunk   int
}

// KnowledgeBase stores chunked reference documents in a Qdrant collection.
type KnowledgeBase struct {
	client         *qdrant.Client
	embedder       Embedder
	collectionName string
	perTypeLimit   int
	log            *zap.Logger
}

func NewKnowledgeBase(urlStr, apiKey, collectionName string, embedder Embedder, log *zap.Logger) (*KnowledgeBase, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid Qdrant URL %q: missing host", urlStr)
	}

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &KnowledgeBase{
		client:         client,
		embedder:       embedder,
		collectionName: collectionName,
		perTypeLimit:   3,
		log:            logger.OrNop(log),
	}, nil
}

func (kb *KnowledgeBase) Close() error {
	return kb.client.Close()
}

// EnsureCollection creates the collection for vectors of the given size when missing.
func (kb *KnowledgeBase) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := kb.client.CollectionExists(ctx, kb.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = kb.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: kb.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	kb.log.Info("✅ Qdrant collection created", zap.String("collection", kb.collectionName))
	return nil
}

// Ingest replaces the chunks stored for docID. Point ids derive from docID and the chunk
// index, so re-ingesting the same document overwrites it.
func (kb *KnowledgeBase) Ingest(ctx context.Context, docID, docType, text string) (int, error) {
	chunks := ChunkText(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s has no text", docID)
	}

	if err := kb.Delete(ctx, docID); err != nil {
		kb.log.Warn("⚠️ Failed to clear previous chunks", zap.String("doc_id", docID), zap.Error(err))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := kb.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, docID, err)
		}
		if i == 0 {
			if err := kb.EnsureCollection(ctx, uint64(len(embedding))); err != nil {
				return 0, err
			}
		}

		pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", docID, i)))
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID.String()),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"doc_id":   docID,
				"doc_type": docType,
				"chunk":    i,
				"text":     chunk,
			}),
		})
	}

	_, err := kb.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: kb.collectionName,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert points: %w", err)
	}

	return len(points), nil
}

func (kb *KnowledgeBase) Search(ctx context.Context, embedding []float32, docType string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if docType != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("doc_type", docType)},
		}
	}

	points, err := kb.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: kb.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		results = append(results, SearchResult{
			ID:      payload["doc_id"].GetStringValue(),
			Score:   point.GetScore(),
			Text:    payload["text"].GetStringValue(),
			DocType: payload["doc_type"].GetStringValue(),
			Chunk:   int(payload["chunk"].GetIntegerValue()),
		})
	}
	return results, nil
}

// RetrieveContext implements Retriever.
func (kb *KnowledgeBase) RetrieveContext(ctx context.Context, query string, docTypes []string) (string, error) {
	embedding, err := kb.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	var all []SearchResult
	for _, docType := range docTypes {
		results, err := kb.Search(ctx, embedding, docType, kb.perTypeLimit)
		if err != nil {
			kb.log.Warn("⚠️ Reference search failed", zap.String("doc_type", docType), zap.Error(err))
			continue
		}
		all = append(all, results...)
	}

	return FormatReferenceContext(all), nil
}

func (kb *KnowledgeBase) Delete(ctx context.Context, docID string) error {
	_, err := kb.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: kb.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("doc_id", docID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// FormatReferenceContext renders search hits as a prompt section. No hits yields "".
func FormatReferenceContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("--- Reference %d [%s] (score %.2f) ---\n%s",
			i+1, r.DocType, r.Score, strings.TrimSpace(r.Text)))
	}
	return strings.Join(parts, "\n\n")
}

// ValidDocType reports whether t is a known reference document type.
func ValidDocType(t string) bool {
	for _, d := range DocTypes {
		if d == t {
			return true
		}
	}
	return false
}
