package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"textembedder/internal/domain/entity"
	"textembedder/internal/port/outbound"
)

// BatchLoader fetches a batch file and decodes it into processing units.
type BatchLoader struct {
	source outbound.BatchSource
}

// NewBatchLoader creates a loader reading from source.
func NewBatchLoader(source outbound.BatchSource) *BatchLoader {
	return &BatchLoader{source: source}
}

// Load reads the whole object stored under batchKey. A fetch error or a line
// that is not a JSON record fails the load. A chunk that cannot be decoded is
// returned as a unit carrying DecodeErr, so it fails on its own.
func (l *BatchLoader) Load(ctx context.Context, batchKey string) ([]entity.ProcessingUnit, error) {
	rc, err := l.source.Open(ctx, batchKey)
	if err != nil {
		return nil, fmt.Errorf("fetch batch %s: %w", batchKey, err)
	}
	defer rc.Close()

	units, err := DecodeUnits(rc)
	if err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", batchKey, err)
	}
	return units, nil
}

// unitRecord is one text unit as stored in a batch file.
type unitRecord struct {
	ID         json.RawMessage `json:"id"`
	Text       string          `json:"text"`
	TokenCount *int            `json:"token_count"`
	Metadata   map[string]any  `json:"metadata"`
	FileKey    string          `json:"file_key"`
	PageNum    *int            `json:"page_num"`
}

// chunk is a decoded unit record or the reason it could not be decoded.
type chunk struct {
	rec unitRecord
	err error
}

// DecodeUnits parses newline-delimited JSON. Blank lines are skipped. A record
// either carries "chunks" (an array of units, a single unit object, or a
// string holding either) or is itself a unit with a "text" field.
func DecodeUnits(r io.Reader) ([]entity.ProcessingUnit, error) {
	reader := bufio.NewReader(r)
	var units []entity.ProcessingUnit

	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read line %d: %w", lineNo, readErr)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			chunks, err := decodeLine(trimmed)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidBatchRecord, lineNo, err)
			}
			for i, c := range chunks {
				pos := entity.UnitPosition{Line: lineNo, Index: i}
				if c.err != nil {
					units = append(units, entity.ProcessingUnit{
						Position:  pos,
						DecodeErr: fmt.Errorf("%w: chunk %s: %w", ErrInvalidBatchRecord, pos, c.err),
					})
					continue
				}
				units = append(units, c.rec.toUnit(pos))
			}
		}

		if errors.Is(readErr, io.EOF) {
			return units, nil
		}
	}
}

func decodeLine(line []byte) ([]chunk, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, err
	}

	chunks, hasChunks := fields["chunks"]
	if !hasChunks {
		if _, hasText := fields["text"]; !hasText {
			return nil, errors.New(`record has neither "chunks" nor "text"`)
		}
		return []chunk{decodeChunk(line)}, nil
	}
	return decodeChunks(chunks, true), nil
}

// decodeChunks never fails the line. A string value is decoded once more,
// the way producers that double-encode "chunks" write it.
func decodeChunks(raw []byte, allowString bool) []chunk {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []chunk{{err: errors.New(`empty "chunks"`)}}
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []chunk{{err: err}}
		}
		out := make([]chunk, 0, len(items))
		for _, item := range items {
			out = append(out, decodeChunk(item))
		}
		return out
	case '{':
		return []chunk{decodeChunk(raw)}
	case '"':
		if allowString {
			var embedded string
			if err := json.Unmarshal(raw, &embedded); err != nil {
				return []chunk{{err: err}}
			}
			return decodeChunks([]byte(embedded), false)
		}
	}
	return []chunk{{err: errors.New(`"chunks" must be an array, an object or a JSON string`)}}
}

func decodeChunk(data []byte) chunk {
	var rec unitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return chunk{err: err}
	}
	return chunk{rec: rec}
}

func (r unitRecord) toUnit(pos entity.UnitPosition) entity.ProcessingUnit {
	return entity.ProcessingUnit{
		ID:         rawID(r.ID),
		Text:       r.Text,
		TokenCount: r.TokenCount,
		Metadata:   r.Metadata,
		FileKey:    r.FileKey,
		PageNum:    r.PageNum,
		Position:   pos,
	}
}

// rawID accepts string and numeric ids; anything else counts as absent.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
