package entity

import (
	"strconv"

	"github.com/google/uuid"
)

// documentNamespace scopes derived document ids to this system.
var documentNamespace = uuid.MustParse("6f1c8e0a-3f7d-5b7e-9c1a-2d4e6b8a0c1f") //nolint:gochecknoglobals // Constant namespace.

// UnitPosition locates a unit inside its batch file.
type UnitPosition struct {
	Line  int // 1-based line of the record in the batch file
	Index int // 0-based index of the unit within the record's chunks
}

func (p UnitPosition) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Index)
}

// ProcessingUnit is one text item that is embedded and indexed independently.
type ProcessingUnit struct {
	ID         string
	Text       string
	TokenCount *int
	Metadata   map[string]any
	FileKey    string
	PageNum    *int
	Position   UnitPosition
	// DecodeErr is set when the unit's record could not be decoded; such a
	// unit fails without being embedded.
	DecodeErr error
}

// DocumentID returns the unit's own id when present. Otherwise it derives a
// name-based UUID from the batch key and the unit's position, so a redelivered
// batch rewrites the same documents instead of adding new ones.
func (u ProcessingUnit) DocumentID(batchKey string) string {
	if u.ID != "" {
		return u.ID
	}
	return uuid.NewSHA1(documentNamespace, []byte(batchKey+"#"+u.Position.String())).String()
}

// Document builds the index document for u.
func (u ProcessingUnit) Document(batchKey string, embedding []float32) IndexedDocument {
	metadata := u.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return IndexedDocument{
		ID:         u.DocumentID(batchKey),
		FileKey:    u.FileKey,
		PageNum:    u.PageNum,
		Text:       u.Text,
		TokenCount: u.TokenCount,
		Metadata:   metadata,
		Embedding:  embedding,
	}
}
