package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE...",
	Short: "Embed reference documents (rubrics, job descriptions, sample answers) into Qdrant",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, _ := cmd.Flags().GetString("type")
		if !services.ValidDocType(docType) {
			return fmt.Errorf("invalid --type %q, expected one of %s", docType, strings.Join(services.DocTypes, ", "))
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		gemini, err := newGemini(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		var embedder services.Embedder
		if gemini != nil {
			embedder = gemini
		}
		kb, err := newKnowledgeBase(cfg, embedder, log)
		if err != nil {
			return err
		}
		if kb == nil {
			return fmt.Errorf("QDRANT_URL is not configured")
		}
		defer kb.Close()

		parser := services.NewDocumentParser(0)
		log.Info("🚀 Starting document ingestion", zap.Int("documents", len(args)), zap.String("type", docType))

		var ok, failed int
		for _, path := range args {
			text, err := readReference(parser, path)
			if err != nil {
				log.Error("❌ Failed to extract text", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}

			docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			chunks, err := kb.Ingest(ctx, docID, docType, text)
			if err != nil {
				log.Error("❌ Failed to ingest document", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}

			log.Info("✅ Document ingested", zap.String("doc_id", docID), zap.Int("chunks", chunks))
			ok++
		}

		log.Info("📊 Ingestion summary", zap.Int("successful", ok), zap.Int("failed", failed))
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed to ingest", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("type", "t", services.DocTypeResumeRubric, "document type: "+strings.Join(services.DocTypes, ", "))
}

// readReference accepts the resume formats plus plain text and markdown.
func readReference(parser services.DocumentParser, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		text := services.CleanText(string(content))
		if text == "" {
			return "", services.ErrEmptyDocument
		}
		return text, nil
	}

	doc, err := parser.Parse(filepath.Base(path), content)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}
