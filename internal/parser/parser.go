package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"notes-rag/internal/models"
)

const (
	DefaultChunkSize    = 500 // characters
	DefaultChunkOverlap = 150 // characters
	defaultPageNumber   = 1
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
)

// Supported reports whether files with this name are ingested
func Supported(filename string) bool {
	switch Ext(filename) {
	case "pdf", "txt":
		return true
	}
	return false
}

// Ext returns the lowercased extension without the dot
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Extract returns the text of each page of the file. Plain text is a single
// page; PDF pages without extractable text are skipped.
func Extract(filename string, data []byte) ([]models.Page, error) {
	switch Ext(filename) {
	case "pdf":
		return parsePDF(data)
	case "txt":
		return parseText(data), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parsePDF(data []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			log.Debug().Int("page", i).Msg("Skipping page without text")
			continue
		}
		pages = append(pages, models.Page{PageNumber: i, Content: pageText})
	}
	return pages, nil
}

func parseText(data []byte) []models.Page {
	return []models.Page{{PageNumber: defaultPageNumber, Content: string(data)}}
}

// ValidateChunking checks a window size and overlap before any chunking
func ValidateChunking(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunkConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunkConfig, overlap, chunkSize)
	}
	return nil
}

// ChunkPages slides a window of chunkSize characters over each page,
// advancing by chunkSize-overlap. Chunk ids are p<page>_c<n> where n counts
// the chunks already produced by this call, so ids are unique per call.
func ChunkPages(pages []models.Page, chunkSize, overlap int) ([]models.Chunk, error) {
	if err := ValidateChunking(chunkSize, overlap); err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	stride := chunkSize - overlap
	for _, page := range pages {
		text := []rune(page.Content)
		for start := 0; start < len(text); start += stride {
			end := min(start+chunkSize, len(text))
			chunks = append(chunks, models.Chunk{
				Content:    string(text[start:end]),
				PageNumber: page.PageNumber,
				ChunkID:    fmt.Sprintf("p%d_c%d", page.PageNumber, len(chunks)),
			})
		}
	}
	return chunks, nil
}
