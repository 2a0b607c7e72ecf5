package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/valueobject"
	"textembedder/internal/port/outbound"
)

// memorySource serves batch files from memory.
type memorySource struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
	opened  int
}

func newMemorySource(objects map[string]string) *memorySource {
	return &memorySource{objects: objects}
}

func (s *memorySource) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	if s.err != nil {
		return nil, s.err
	}
	body, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// recordingEmbedder returns a fixed-size vector and tracks concurrency.
type recordingEmbedder struct {
	dim      int
	delay    time.Duration
	failText map[string]error
	panicOn  string

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	mu    sync.Mutex
	texts []string
}

func newRecordingEmbedder(dim int) *recordingEmbedder {
	return &recordingEmbedder{dim: dim, failText: map[string]error{}}
}

func (e *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		peak := e.maxInFlight.Load()
		if n <= peak || e.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.panicOn != "" && text == e.panicOn {
		panic("embedder exploded")
	}
	if err, ok := e.failText[text]; ok {
		return nil, err
	}
	vec := make([]float32, e.dim)
	for i := range vec {
		vec[i] = float32(len(text)+i) / 100
	}
	return vec, nil
}

func (e *recordingEmbedder) ModelName() string { return "recording" }

func (e *recordingEmbedder) embeddedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.texts...)
}

// memoryIndex is an in-memory VectorIndex.
type memoryIndex struct {
	mu        sync.Mutex
	docs      map[string]entity.IndexedDocument
	dimension int
	ensured   int
	created   int
	upserts   int
	failIDs   map[string]error
	ensureErr error
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{docs: map[string]entity.IndexedDocument{}, failIDs: map[string]error{}}
}

func (x *memoryIndex) Exists(context.Context) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.dimension > 0, nil
}

func (x *memoryIndex) EnsureIndex(_ context.Context, dim int) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ensured++
	if x.ensureErr != nil {
		return false, x.ensureErr
	}
	if x.dimension > 0 {
		return false, nil
	}
	x.dimension = dim
	x.created++
	return true, nil
}

func (x *memoryIndex) Upsert(_ context.Context, doc entity.IndexedDocument) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.upserts++
	if err, ok := x.failIDs[doc.ID]; ok {
		return err
	}
	if x.dimension > 0 && len(doc.Embedding) != x.dimension {
		return errors.New("dimension mismatch")
	}
	x.docs[doc.ID] = doc
	return nil
}

func (x *memoryIndex) Search(context.Context, string, int) ([]entity.SearchHit, error) {
	return nil, nil
}

func (x *memoryIndex) VectorSearch(context.Context, []float32, int) ([]entity.SearchHit, error) {
	return nil, nil
}

func (x *memoryIndex) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

func (x *memoryIndex) Purge(context.Context) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := int64(len(x.docs))
	x.docs = map[string]entity.IndexedDocument{}
	return n, nil
}

func (x *memoryIndex) texts() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []string
	for _, d := range x.docs {
		out = append(out, d.Text)
	}
	return out
}

func (x *memoryIndex) count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.docs)
}

// memoryStatus keeps every write so tests can check the sequence.
type memoryStatus struct {
	mu      sync.Mutex
	writes  []entity.BatchStatusRecord
	failFor map[valueobject.BatchStatus]error
}

func newMemoryStatus() *memoryStatus {
	return &memoryStatus{failFor: map[valueobject.BatchStatus]error{}}
}

func (s *memoryStatus) SetStatus(ctx context.Context, record entity.BatchStatusRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[record.Status]; ok {
		return err
	}
	s.writes = append(s.writes, record)
	return nil
}

func (s *memoryStatus) GetStatus(_ context.Context, key string) (entity.BatchStatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].BatchKey == key {
			return s.writes[i], nil
		}
	}
	return entity.BatchStatusRecord{}, errors.New("not found")
}

func (s *memoryStatus) history(key string) []valueobject.BatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []valueobject.BatchStatus
	for _, w := range s.writes {
		if w.BatchKey == key {
			out = append(out, w.Status)
		}
	}
	return out
}

func (s *memoryStatus) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// fakeMessage is a leased queue message.
type fakeMessage struct {
	id       string
	body     []byte
	ackErr   error
	acked    atomic.Int64
	extended atomic.Int64
}

func newFakeMessage(id, body string) *fakeMessage {
	return &fakeMessage{id: id, body: []byte(body)}
}

func (m *fakeMessage) ID() string   { return m.id }
func (m *fakeMessage) Body() []byte { return m.body }

func (m *fakeMessage) Ack(context.Context) error {
	if m.ackErr != nil {
		return m.ackErr
	}
	m.acked.Add(1)
	return nil
}

func (m *fakeMessage) ExtendLease(context.Context) error {
	m.extended.Add(1)
	return nil
}

// scriptedQueue returns one scripted response per Receive call, then nothing.
type scriptedQueue struct {
	mu        sync.Mutex
	responses [][]outbound.QueueMessage
	errs      []error
	calls     int
}

func (q *scriptedQueue) Receive(ctx context.Context, _ int, _ time.Duration) ([]outbound.QueueMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.calls
	q.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i < len(q.errs) && q.errs[i] != nil {
		return nil, q.errs[i]
	}
	if i < len(q.responses) {
		return q.responses[i], nil
	}
	return nil, nil
}

func (q *scriptedQueue) receiveCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// batchLines renders units as a chunks-array NDJSON record per line.
func batchLines(texts ...string) string {
	var b strings.Builder
	for _, t := range texts {
		fmt.Fprintf(&b, "{\"chunks\":[{\"text\":%q}]}\n", t)
	}
	return b.String()
}
