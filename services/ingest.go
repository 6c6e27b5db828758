package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

// PageExtractor yields per-page text from a PDF file. Seam for tests;
// the default implementation parses with ledongthuc/pdf.
type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// Ingestor feeds PDF pages and JSONL evidence records through the
// chunk/embed/store pipeline with provenance metadata.
type Ingestor struct {
	store    *VectorStore
	embedder EmbeddingProvider
	pages    PageExtractor
	maxChars int
	overlap  int
}

func NewIngestor(store *VectorStore, embedder EmbeddingProvider, maxChars, overlap int) *Ingestor {
	if maxChars <= 0 {
		maxChars = 4000
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 300
	}
	return &Ingestor{
		store:    store,
		embedder: embedder,
		pages:    pdfPageExtractor{},
		maxChars: maxChars,
		overlap:  overlap,
	}
}

// WithPageExtractor overrides PDF page extraction.
func (ing *Ingestor) WithPageExtractor(pe PageExtractor) *Ingestor {
	ing.pages = pe
	return ing
}

// IngestPDF extracts text per page, chunks each non-empty page, and
// stores the chunks as pdf_page with document provenance. Returns the
// number of stored chunks. Pages without text and chunks whose
// embedding fails are skipped.
func (ing *Ingestor) IngestPDF(ctx context.Context, path string) (int, error) {
	pages, err := ing.pages.ExtractPages(path)
	if err != nil {
		return 0, fmt.Errorf("extracting pages from %s: %w", path, err)
	}

	docName := filepath.Base(path)
	company := inferCompany(docName)

	var records []models.DocumentChunk
	for pageNum, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		for chunkIdx, chunk := range ChunkChars(text, ing.maxChars, ing.overlap) {
			embedding, err := ing.embedder.Embed(ctx, chunk)
			if err != nil {
				logger.Warn("skipping PDF chunk, embedding failed",
					"document", docName, "page", pageNum+1, "error", err)
				continue
			}
			records = append(records, models.DocumentChunk{
				Content:     chunk,
				Embedding:   embedding,
				ContentType: models.ContentTypePDFPage,
				Metadata: map[string]string{
					"document":    docName,
					"company":     company,
					"page":        strconv.Itoa(pageNum + 1),
					"chunk_index": strconv.Itoa(chunkIdx),
					"source_path": path,
				},
			})
		}
	}

	if err := ing.store.AddBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", docName, err)
	}
	logger.Info("ingested PDF", "document", docName, "pages", len(pages), "chunks", len(records))
	return len(records), nil
}

// IngestPDFDirectory ingests every .pdf in dir. Failures are isolated
// per file; one bad document never aborts the batch.
func (ing *Ingestor) IngestPDFDirectory(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		n, err := ing.IngestPDF(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Error("PDF ingestion failed, continuing batch", "file", entry.Name(), "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// Evidence records use inconsistent field names across dataset exports;
// each value is taken from the first present alias.
var (
	evidenceTextAliases  = []string{"evidence_text_full_page", "evidence_text"}
	jsonlMetadataAliases = map[string][]string{
		"document":    {"document_name", "doc_name"},
		"company":     {"company_symbol", "company"},
		"page":        {"page_num", "page"},
		"source_path": {"document_local_path"},
		"source_url":  {"document_url"},
		"evidence_id": {"id", "question_id"},
	}
)

// IngestJSONL parses newline-delimited evidence records, chunking and
// storing the evidence text as jsonl_evidence. Malformed lines and
// records without evidence text are skipped.
func (ing *Ingestor) IngestJSONL(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []models.DocumentChunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn("skipping malformed JSONL line", "file", path, "line", lineNum)
			continue
		}

		evidence := firstStringField(record, evidenceTextAliases)
		if strings.TrimSpace(evidence) == "" {
			continue
		}

		metadata := map[string]string{}
		for key, aliases := range jsonlMetadataAliases {
			if v := firstStringField(record, aliases); v != "" {
				metadata[key] = v
			}
		}

		for chunkIdx, chunk := range ChunkChars(evidence, ing.maxChars, ing.overlap) {
			embedding, err := ing.embedder.Embed(ctx, chunk)
			if err != nil {
				logger.Warn("skipping JSONL chunk, embedding failed", "file", path, "line", lineNum, "error", err)
				continue
			}
			chunkMeta := make(map[string]string, len(metadata)+1)
			for k, v := range metadata {
				chunkMeta[k] = v
			}
			chunkMeta["chunk_index"] = strconv.Itoa(chunkIdx)

			records = append(records, models.DocumentChunk{
				Content:     chunk,
				Embedding:   embedding,
				ContentType: models.ContentTypeJSONL,
				Metadata:    chunkMeta,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := ing.store.AddBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("storing chunks for %s: %w", path, err)
	}
	logger.Info("ingested JSONL evidence", "file", filepath.Base(path), "chunks", len(records))
	return len(records), nil
}

// firstStringField returns the first alias present in the record,
// stringifying numbers so numeric ids and page numbers survive.
func firstStringField(record map[string]any, aliases []string) string {
	for _, alias := range aliases {
		switch v := record[alias].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

var companyPrefixPattern = regexp.MustCompile(`^([A-Za-z0-9.&]+)[_\- ]`)

// inferCompany reads the company from the filename prefix, the naming
// convention of FinanceBench filings ("AMD_2022_10K.pdf").
func inferCompany(filename string) string {
	m := companyPrefixPattern.FindStringSubmatch(filename)
	if m == nil {
		return "unknown"
	}
	return strings.ToUpper(m[1])
}

type pdfPageExtractor struct{}

func (pdfPageExtractor) ExtractPages(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", i, "error", err)
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}
