package dedup

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/docdedup/internal/domain"
	"github.com/kailas-cloud/docdedup/internal/domain/match"
	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
)

// --- Mocks ---

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ []byte) (string, error) { return m.text, m.err }

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockIndex struct {
	queryFn func(ctx context.Context, vector []float32, k int) ([]match.Match, error)
	calls   int
	lastK   int
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, k int) ([]match.Match, error) {
	m.calls++
	m.lastK = k
	if m.queryFn != nil {
		return m.queryFn(ctx, vector, k)
	}
	return nil, nil
}

func returning(matches ...match.Match) func(context.Context, []float32, int) ([]match.Match, error) {
	return func(context.Context, []float32, int) ([]match.Match, error) { return matches, nil }
}

var meta = domrec.Metadata{Filename: "paper.pdf", SourceReference: "0xabc"}

// --- Tests ---

func check(t *testing.T, d *Detector) Decision {
	t.Helper()
	dec, err := d.CheckAndBuildRecord(context.Background(), nil, meta)
	if err != nil {
		t.Fatalf("CheckAndBuildRecord: %v", err)
	}
	return dec
}

func checkErr(t *testing.T, d *Detector, sentinels ...error) {
	t.Helper()
	_, err := d.CheckAndBuildRecord(context.Background(), nil, meta)
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			t.Errorf("expected %v in chain, got %v", s, err)
		}
	}
}

func TestCheck_EmptyIndexIsPending(t *testing.T) {
	ix := &mockIndex{}
	d := New(&mockExtractor{text: "hello world"}, &mockEmbedder{vec: []float32{1, 0}}, ix)

	dec, err := d.CheckAndBuildRecord(context.Background(), []byte("%PDF-"), meta)
	if err != nil {
		t.Fatalf("CheckAndBuildRecord: %v", err)
	}
	if dec.Pending == nil || dec.Duplicate != nil || dec.IsDuplicate() {
		t.Fatalf("expected pending decision, got %+v", dec)
	}
	p := dec.Pending
	if p.Text != "hello world" {
		t.Errorf("text = %q", p.Text)
	}
	if p.Metadata != meta {
		t.Errorf("metadata = %+v", p.Metadata)
	}
	if p.Fingerprint != domrec.Fingerprint("hello world") {
		t.Errorf("fingerprint = %q", p.Fingerprint)
	}
	if !slices.Equal(p.Vector, []float32{1, 0}) {
		t.Errorf("vector = %v", p.Vector)
	}
	if ix.lastK != DefaultTopK {
		t.Errorf("k = %d, want %d", ix.lastK, DefaultTopK)
	}
}

func TestCheck_AboveThresholdIsDuplicate(t *testing.T) {
	ix := &mockIndex{queryFn: returning(match.New("r1", "a.pdf", 0.99))}
	dec := check(t, New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix))

	if dec.Duplicate == nil || dec.Pending != nil {
		t.Fatalf("expected duplicate decision, got %+v", dec)
	}
	if dec.Duplicate.CandidateID() != "r1" || dec.Duplicate.Filename() != "a.pdf" {
		t.Errorf("unexpected match %+v", dec.Duplicate)
	}
	if math.Abs(dec.Duplicate.Score()-0.99) > 1e-9 {
		t.Errorf("score = %v, want 0.99", dec.Duplicate.Score())
	}
}

func TestCheck_BelowThresholdIsPending(t *testing.T) {
	ix := &mockIndex{queryFn: returning(match.New("r1", "a.pdf", 0.80), match.New("r2", "b.pdf", 0.5))}
	dec := check(t, New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix))

	if dec.Pending == nil || dec.Duplicate != nil {
		t.Fatalf("expected pending decision, got %+v", dec)
	}
	if len(dec.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(dec.Candidates))
	}
}

func TestCheck_ThresholdIsStrict(t *testing.T) {
	ix := &mockIndex{queryFn: returning(match.New("r1", "a.pdf", DefaultThreshold))}
	dec := check(t, New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix))

	if dec.Pending == nil {
		t.Error("score equal to threshold is not a duplicate")
	}
}

func TestCheck_PicksHighestAndFirstOnTie(t *testing.T) {
	ix := &mockIndex{queryFn: returning(
		match.New("low", "", 0.96),
		match.New("first", "", 0.98),
		match.New("second", "", 0.98),
	)}
	d := New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix)

	for range 3 {
		dec := check(t, d)
		if dec.Duplicate == nil || dec.Duplicate.CandidateID() != "first" {
			t.Fatalf("expected first of the tied matches, got %+v", dec.Duplicate)
		}
	}
}

func TestCheck_CustomThresholdAndTopK(t *testing.T) {
	ix := &mockIndex{queryFn: returning(match.New("r1", "", 0.85))}
	d := New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix).
		WithThreshold(0.8).
		WithTopK(10)

	if dec := check(t, d); dec.Duplicate == nil {
		t.Error("0.85 must exceed a 0.8 threshold")
	}
	if ix.lastK != 10 {
		t.Errorf("k = %d, want 10", ix.lastK)
	}
	if d.Threshold() != 0.8 {
		t.Errorf("threshold = %v, want 0.8", d.Threshold())
	}
}

func TestCheck_InvalidOptionsIgnored(t *testing.T) {
	for _, th := range []float64{0, -0.5, 1, 1.5} {
		if got := New(nil, nil, nil).WithThreshold(th).Threshold(); got != DefaultThreshold {
			t.Errorf("WithThreshold(%v) = %v, want default %v", th, got, DefaultThreshold)
		}
	}
	if d := New(nil, nil, nil).WithTopK(0); d.topK != DefaultTopK {
		t.Errorf("topK = %d, want %d", d.topK, DefaultTopK)
	}
}

func TestCheck_ExactCopyAlwaysExceedsThreshold(t *testing.T) {
	ix := &mockIndex{queryFn: returning(match.New("r1", "a.pdf", 1))}
	d := New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix).WithThreshold(1)

	if dec := check(t, d); dec.Duplicate == nil {
		t.Errorf("identical vector must be a duplicate at threshold %v", d.Threshold())
	}
}

func TestCheck_ExtractionFailsFast(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	ix := &mockIndex{}
	d := New(&mockExtractor{err: domain.ErrExtraction}, emb, ix)

	_, err := d.CheckAndBuildRecord(context.Background(), []byte("garbage"), meta)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedding must not be called after extraction failure")
	}
	if ix.calls != 0 {
		t.Error("index must not be queried after extraction failure")
	}
}

func TestCheck_ExtractionErrorAlwaysClassified(t *testing.T) {
	checkErr(t, New(&mockExtractor{err: errors.New("boom")}, &mockEmbedder{}, &mockIndex{}), domain.ErrExtraction)
}

func TestCheck_EmbeddingError(t *testing.T) {
	ix := &mockIndex{}
	checkErr(t, New(&mockExtractor{text: "text"}, &mockEmbedder{err: errors.New("connection refused")}, ix),
		domain.ErrEmbeddingService)
	if ix.calls != 0 {
		t.Error("index must not be queried after embedding failure")
	}
}

func TestCheck_EmptyEmbedding(t *testing.T) {
	checkErr(t, New(&mockExtractor{text: "text"}, &mockEmbedder{vec: nil}, &mockIndex{}), domain.ErrEmbeddingService)
}

func TestCheck_DimensionMismatch(t *testing.T) {
	ix := &mockIndex{}
	d := New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1, 2, 3}}, ix).WithDimensions(4)

	checkErr(t, d, domain.ErrIndex, domain.ErrVectorDimMismatch)
	if ix.calls != 0 {
		t.Error("index must not be queried with a mismatched vector")
	}
}

func TestCheck_IndexError(t *testing.T) {
	ix := &mockIndex{queryFn: func(context.Context, []float32, int) ([]match.Match, error) {
		return nil, errors.New("connection reset")
	}}
	checkErr(t, New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix), domain.ErrIndex)
}

func TestCheck_QueryTimeout(t *testing.T) {
	ix := &mockIndex{queryFn: func(ctx context.Context, _ []float32, _ int) ([]match.Match, error) {
		<-ctx.Done()
		return nil, errors.New("search aborted")
	}}
	d := New(&mockExtractor{text: "text"}, &mockEmbedder{vec: []float32{1}}, ix).
		WithQueryTimeout(10 * time.Millisecond)

	checkErr(t, d, domain.ErrIndex, context.DeadlineExceeded)
}
