package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	formdomain "productform/internal/form/domain"
	"productform/internal/submission/domain"
	"productform/internal/submission/infrastructure"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeTransport returns canned results and counts calls per step
type fakeTransport struct {
	mu    sync.Mutex
	calls []domain.Step

	createErr error
	uploadErr error
	patchErr  error

	// block, when set, holds CreateProduct until it is closed
	block chan struct{}

	gotDraft formdomain.Draft
	gotFiles []formdomain.File
	gotID    string
	gotRefs  domain.ImageRefs
}

func (f *fakeTransport) called(step domain.Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
}

func (f *fakeTransport) Calls() []domain.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Step(nil), f.calls...)
}

func (f *fakeTransport) CreateProduct(ctx context.Context, draft formdomain.Draft) (domain.CreatedProduct, error) {
	f.called(domain.StepCreate)
	if f.block != nil {
		<-f.block
	}
	f.gotDraft = draft
	if f.createErr != nil {
		return domain.CreatedProduct{}, f.createErr
	}
	return domain.CreatedProduct{ID: "42", Raw: json.RawMessage(`{"id":42}`)}, nil
}

func (f *fakeTransport) UploadImages(ctx context.Context, files []formdomain.File) (domain.ImageRefs, error) {
	f.called(domain.StepUpload)
	f.gotFiles = files
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	refs := make(domain.ImageRefs, len(files))
	for i, file := range files {
		refs[i] = json.RawMessage(`{"name":"` + file.Name + `"}`)
	}
	return refs, nil
}

func (f *fakeTransport) PatchProductImages(ctx context.Context, productID string, refs domain.ImageRefs) (json.RawMessage, error) {
	f.called(domain.StepPatch)
	f.gotID = productID
	f.gotRefs = refs
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return json.RawMessage(`{"id":42,"images":[]}`), nil
}

type memoryRepository struct {
	mu      sync.Mutex
	records []domain.Record
	err     error
}

func (r *memoryRepository) InsertRecord(ctx context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRepository) ListRecords(ctx context.Context, filters domain.RecordFilters) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Record(nil), r.records...), r.err
}

func (r *memoryRepository) Records() []domain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Record(nil), r.records...)
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []string
}

func (s *statusRecorder) listen(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *statusRecorder) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

var testFiles = []formdomain.File{
	{Name: "imageA.png", ContentType: "image/png", Data: []byte("a")},
	{Name: "imageB.png", ContentType: "image/png", Data: []byte("b")},
}

type fixture struct {
	form      *formdomain.Holder
	transport *fakeTransport
	repo      *memoryRepository
	statuses  *statusRecorder
	spans     *tracetest.SpanRecorder
	orch      *Orchestrator
}

func newFixture(t *testing.T, files []formdomain.File) *fixture {
	t.Helper()
	f := &fixture{
		form:      formdomain.NewHolder(),
		transport: &fakeTransport{},
		repo:      &memoryRepository{},
		statuses:  &statusRecorder{},
		spans:     tracetest.NewSpanRecorder(),
	}
	f.form.SetFiles(files)

	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	f.orch = NewOrchestrator(nopLogger{}, f.form,
		map[domain.Variant]domain.Transport{
			domain.VariantFetch:  f.transport,
			domain.VariantClient: f.transport,
		},
		WithRepository(f.repo),
		WithStatusListener(f.statuses.listen),
		WithTracer(provider.Tracer("test")),
	)
	return f
}

func TestOrchestrator_SubmitSuccess(t *testing.T) {
	f := newFixture(t, testFiles)

	result, err := f.orch.Submit(context.Background(), domain.VariantFetch)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "42", result.Created.ID)
	assert.Len(t, result.UploadedImages, 2)
	assert.JSONEq(t, `{"id":42,"images":[]}`, string(result.Updated))

	assert.Equal(t, []domain.Step{domain.StepCreate, domain.StepUpload, domain.StepPatch}, f.transport.Calls())
	assert.Equal(t, formdomain.DefaultDraft(), f.transport.gotDraft)
	assert.Equal(t, testFiles, f.transport.gotFiles)
	assert.Equal(t, "42", f.transport.gotID)
	assert.Equal(t, result.UploadedImages, f.transport.gotRefs)

	state := f.orch.State()
	assert.Equal(t, "Process (fetch) completed.", state.Status)
	assert.False(t, state.InProgress)
	assert.True(t, state.CanSubmit)
	assert.Same(t, result, state.Result)

	assert.Equal(t, []string{
		"Step 1 (fetch): creating product...",
		"Step 1 complete. ID: 42. Step 2 (fetch): uploading images...",
		"Step 2 complete (2 images). Step 3 (fetch): updating product...",
		"Process (fetch) completed.",
	}, f.statuses.Statuses())

	records := f.repo.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Successful())
	assert.False(t, records[0].Orphaned)
	assert.Equal(t, 2, records[0].ImageCount)
	assert.Equal(t, "Process (fetch) completed.", records[0].Status)

	names := make([]string, 0)
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"submission", "submission.create", "submission.upload", "submission.patch"}, names)
}

func TestOrchestrator_ResultJSON(t *testing.T) {
	f := newFixture(t, testFiles[:1])

	result, err := f.orch.Submit(context.Background(), domain.VariantClient)
	require.NoError(t, err)

	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"created": {"id": 42},
		"uploadedImages": [{"name": "imageA.png"}],
		"updated": {"id": 42, "images": []}
	}`, string(body))
}

func TestOrchestrator_CreateFails(t *testing.T) {
	f := newFixture(t, testFiles)
	f.transport.createErr = domain.NewTransportError(domain.StepCreate, domain.VariantFetch, http.StatusInternalServerError)

	result, err := f.orch.Submit(context.Background(), domain.VariantFetch)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusInternalServerError, domain.StatusCode(err))

	assert.Equal(t, []domain.Step{domain.StepCreate}, f.transport.Calls())

	state := f.orch.State()
	assert.Equal(t, "Error: error creating product (fetch): 500", state.Status)
	assert.Contains(t, state.Status, "500")
	assert.False(t, state.InProgress)
	assert.Nil(t, state.Result)

	records := f.repo.Records()
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ProductID)
	assert.False(t, records[0].Orphaned)
	assert.Equal(t, 0, records[0].StepReached)
	require.NotNil(t, records[0].Error)
}

func TestOrchestrator_UploadFailsLeavesOrphan(t *testing.T) {
	f := newFixture(t, testFiles)
	f.transport.uploadErr = domain.NewTransportError(domain.StepUpload, domain.VariantClient, http.StatusRequestEntityTooLarge)

	result, err := f.orch.Submit(context.Background(), domain.VariantClient)
	require.Error(t, err)
	assert.Nil(t, result)

	assert.Equal(t, []domain.Step{domain.StepCreate, domain.StepUpload}, f.transport.Calls())

	state := f.orch.State()
	assert.Equal(t, "Error: error uploading images (client): 413", state.Status)
	assert.Nil(t, state.Result)
	assert.False(t, state.InProgress)

	records := f.repo.Records()
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ProductID)
	assert.Equal(t, "42", *records[0].ProductID)
	assert.True(t, records[0].Orphaned)
	assert.Equal(t, int(domain.StepCreate), records[0].StepReached)
}

func TestOrchestrator_PatchFails(t *testing.T) {
	f := newFixture(t, testFiles)
	f.transport.patchErr = errors.New("connection reset")

	_, err := f.orch.Submit(context.Background(), domain.VariantFetch)
	require.Error(t, err)

	assert.Equal(t, "Error: connection reset", f.orch.State().Status)
	assert.Equal(t, 0, domain.StatusCode(err))

	records := f.repo.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Orphaned)
	assert.Equal(t, int(domain.StepUpload), records[0].StepReached)
}

func TestOrchestrator_GuardErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   []formdomain.File
		variant domain.Variant
		wantErr error
	}{
		{name: "no files", files: nil, variant: domain.VariantFetch, wantErr: domain.ErrNoFiles},
		{name: "unknown variant", files: testFiles, variant: "axios", wantErr: domain.ErrUnknownVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.files)

			result, err := f.orch.Submit(context.Background(), tt.variant)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsGuardError(err))

			assert.Empty(t, f.transport.Calls())
			assert.Empty(t, f.statuses.Statuses())
			assert.Empty(t, f.repo.Records())
			assert.Empty(t, f.orch.State().Status)
		})
	}
}

func TestOrchestrator_RejectsConcurrentSubmission(t *testing.T) {
	f := newFixture(t, testFiles)
	f.transport.block = make(chan struct{})

	require.NoError(t, f.orch.Start(domain.VariantFetch))

	state := f.orch.State()
	assert.True(t, state.InProgress)
	assert.False(t, state.CanSubmit)
	assert.False(t, f.orch.CanSubmit())

	_, err := f.orch.Submit(context.Background(), domain.VariantClient)
	assert.ErrorIs(t, err, domain.ErrSubmissionInProgress)
	assert.ErrorIs(t, f.orch.Start(domain.VariantFetch), domain.ErrSubmissionInProgress)

	close(f.transport.block)

	require.Eventually(t, func() bool {
		return !f.orch.State().InProgress
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Process (fetch) completed.", f.orch.State().Status)
	assert.Len(t, f.repo.Records(), 1)
	assert.True(t, f.orch.CanSubmit())
}

func TestOrchestrator_ClearsResultOnNewSubmission(t *testing.T) {
	f := newFixture(t, testFiles)

	_, err := f.orch.Submit(context.Background(), domain.VariantFetch)
	require.NoError(t, err)
	require.NotNil(t, f.orch.State().Result)

	f.transport.block = make(chan struct{})
	require.NoError(t, f.orch.Start(domain.VariantClient))

	state := f.orch.State()
	assert.Nil(t, state.Result)
	assert.Equal(t, "Step 1 (client): creating product...", state.Status)

	f.transport.createErr = errors.New("boom")
	close(f.transport.block)

	require.Eventually(t, func() bool {
		return !f.orch.State().InProgress
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.orch.State().Result)
}

func TestOrchestrator_SnapshotsFormAtStart(t *testing.T) {
	f := newFixture(t, testFiles)
	f.transport.block = make(chan struct{})

	require.NoError(t, f.orch.Start(domain.VariantFetch))
	f.form.SetField(formdomain.FieldName, "changed mid-flight")
	f.form.SetFiles(testFiles[:1])
	close(f.transport.block)

	require.Eventually(t, func() bool {
		return !f.orch.State().InProgress
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, f.transport.gotFiles, 2)
}

func TestOrchestrator_RecordFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t, testFiles)
	f.repo.err = errors.New("disk full")

	result, err := f.orch.Submit(context.Background(), domain.VariantFetch)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

// equivalenceBackend answers the three remote calls the same way for any client
func equivalenceBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == domain.ProductPath:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			out, _ := json.Marshal(map[string]any{"id": 7, "name": body["name"], "images": body["images"]})
			w.Write(out)
		case r.Method == http.MethodPost && r.URL.Path == domain.UploadImagePath:
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			refs := make([]map[string]any, 0)
			for _, fh := range r.MultipartForm.File[domain.UploadFieldName] {
				refs = append(refs, map[string]any{"name": fh.Filename, "size": fh.Size})
			}
			out, _ := json.Marshal(refs)
			w.Write(out)
		case r.Method == http.MethodPatch && r.URL.Path == domain.ProductPath+"/7":
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOrchestrator_VariantsProduceSameResult(t *testing.T) {
	server := equivalenceBackend(t)

	transports, err := infrastructure.BuildTransports(server.URL, infrastructure.NewHTTPClient())
	require.NoError(t, err)

	form := formdomain.NewHolder()
	form.SetFiles(testFiles)
	orch := NewOrchestrator(nopLogger{}, form, transports)

	results := make(map[domain.Variant][]byte)
	for _, v := range domain.Variants {
		result, err := orch.Submit(context.Background(), v)
		require.NoError(t, err, "variant %s", v)

		body, err := json.Marshal(result)
		require.NoError(t, err)
		results[v] = body
	}

	assert.JSONEq(t, string(results[domain.VariantFetch]), string(results[domain.VariantClient]))
	assert.JSONEq(t, `{
		"created": {"id": 7, "name": "Producto nuevo", "images": []},
		"uploadedImages": [{"name": "imageA.png", "size": 1}, {"name": "imageB.png", "size": 1}],
		"updated": {"images": [{"name": "imageA.png", "size": 1}, {"name": "imageB.png", "size": 1}]}
	}`, string(results[domain.VariantFetch]))
}
