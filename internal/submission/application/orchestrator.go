package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	formdomain "productform/internal/form/domain"
	sharedlogger "productform/internal/shared/logger"
	"productform/internal/submission/domain"
)

// StatusListener receives every status change
type StatusListener func(status string)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRepository records every attempt in repo
func WithRepository(repo domain.Repository) Option {
	return func(o *Orchestrator) {
		o.repo = repo
	}
}

// WithStatusListener registers a listener for status changes
func WithStatusListener(l StatusListener) Option {
	return func(o *Orchestrator) {
		o.listeners = append(o.listeners, l)
	}
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// State is a snapshot of the orchestrator for presentation
type State struct {
	Status     string         `json:"status"`
	InProgress bool           `json:"inProgress"`
	CanSubmit  bool           `json:"canSubmit"`
	Result     *domain.Result `json:"result"`
}

// Orchestrator runs the create, upload and patch calls in strict sequence.
// Only one submission may be in progress at a time.
type Orchestrator struct {
	logger     sharedlogger.Logger
	form       *formdomain.Holder
	transports map[domain.Variant]domain.Transport
	repo       domain.Repository
	tracer     trace.Tracer
	listeners  []StatusListener

	mu         sync.Mutex
	inProgress bool
	status     string
	result     *domain.Result
}

// NewOrchestrator creates an orchestrator over form using one transport per variant
func NewOrchestrator(logger sharedlogger.Logger, form *formdomain.Holder, transports map[domain.Variant]domain.Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:     logger,
		form:       form,
		transports: transports,
		tracer:     otel.Tracer("productform/submission"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CanSubmit reports whether a trigger for a new submission should be enabled
func (o *Orchestrator) CanSubmit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.inProgress && o.form.HasFiles()
}

// State returns the current status, progress flag and result
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Status:     o.status,
		InProgress: o.inProgress,
		CanSubmit:  !o.inProgress && o.form.HasFiles(),
		Result:     o.result,
	}
}

// TryBegin marks a submission as started if none is running and files are selected.
// It clears the previous result and announces step 1.
func (o *Orchestrator) TryBegin(variant domain.Variant) error {
	if _, ok := o.transports[variant]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownVariant, variant)
	}

	o.mu.Lock()
	if o.inProgress {
		o.mu.Unlock()
		return domain.ErrSubmissionInProgress
	}
	if !o.form.HasFiles() {
		o.mu.Unlock()
		return domain.ErrNoFiles
	}
	o.inProgress = true
	o.result = nil
	o.mu.Unlock()

	o.setStatus(fmt.Sprintf("Step 1 (%s): creating product...", variant))
	return nil
}

// Submit begins and runs a submission, returning once it completes or fails
func (o *Orchestrator) Submit(ctx context.Context, variant domain.Variant) (*domain.Result, error) {
	if err := o.TryBegin(variant); err != nil {
		return nil, err
	}
	return o.Run(ctx, variant)
}

// Start begins a submission and runs it in the background.
// The submission is detached from any request context and cannot be cancelled.
func (o *Orchestrator) Start(variant domain.Variant) error {
	if err := o.TryBegin(variant); err != nil {
		return err
	}
	draft, files := o.form.Draft(), o.form.Files()
	go o.run(context.Background(), variant, draft, files)
	return nil
}

// Run executes the three steps for a submission started with TryBegin.
// The first error stops the chain; nothing created earlier is undone.
func (o *Orchestrator) Run(ctx context.Context, variant domain.Variant) (*domain.Result, error) {
	return o.run(ctx, variant, o.form.Draft(), o.form.Files())
}

func (o *Orchestrator) run(ctx context.Context, variant domain.Variant, draft formdomain.Draft, files []formdomain.File) (*domain.Result, error) {
	defer o.finish()

	transport := o.transports[variant]

	rec := domain.Record{
		ID:         uuid.NewString(),
		Variant:    variant,
		StartedAt:  time.Now(),
		ImageCount: len(files),
	}

	ctx, span := o.tracer.Start(ctx, "submission",
		trace.WithAttributes(
			attribute.String("submission.id", rec.ID),
			attribute.String("submission.variant", string(variant)),
			attribute.Int("submission.files", len(files)),
		))
	defer span.End()

	o.logger.Info("Submission started", "submission_id", rec.ID, "variant", variant, "files", len(files))

	result, err := o.runSteps(ctx, transport, variant, draft, files, &rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.setStatus("Error: " + err.Error())

		msg := err.Error()
		rec.Error = &msg
		rec.Orphaned = rec.ProductID != nil
		o.logger.Error("Submission failed",
			"submission_id", rec.ID,
			"variant", variant,
			"step_reached", rec.StepReached,
			"status_code", domain.StatusCode(err),
			"orphaned", rec.Orphaned,
			"err", err,
		)
	} else {
		o.mu.Lock()
		o.result = result
		o.mu.Unlock()
		o.logger.Info("Submission completed", "submission_id", rec.ID, "variant", variant, "product_id", *rec.ProductID)
	}

	rec.FinishedAt = time.Now()
	rec.Status = o.State().Status
	o.record(rec)

	return result, err
}

func (o *Orchestrator) runSteps(ctx context.Context, transport domain.Transport, variant domain.Variant, draft formdomain.Draft, files []formdomain.File, rec *domain.Record) (*domain.Result, error) {
	var created domain.CreatedProduct
	err := o.step(ctx, domain.StepCreate, func(ctx context.Context) (err error) {
		created, err = transport.CreateProduct(ctx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	productID := created.ID
	rec.ProductID = &productID
	rec.StepReached = int(domain.StepCreate)
	o.setStatus(fmt.Sprintf("Step 1 complete. ID: %s. Step 2 (%s): uploading images...", created.ID, variant))

	var refs domain.ImageRefs
	err = o.step(ctx, domain.StepUpload, func(ctx context.Context) (err error) {
		refs, err = transport.UploadImages(ctx, files)
		return err
	})
	if err != nil {
		return nil, err
	}
	rec.StepReached = int(domain.StepUpload)
	o.setStatus(fmt.Sprintf("Step 2 complete (%d images). Step 3 (%s): updating product...", len(refs), variant))

	var result domain.Result
	err = o.step(ctx, domain.StepPatch, func(ctx context.Context) (err error) {
		result.Updated, err = transport.PatchProductImages(ctx, created.ID, refs)
		return err
	})
	if err != nil {
		return nil, err
	}
	rec.StepReached = int(domain.StepPatch)
	o.setStatus(fmt.Sprintf("Process (%s) completed.", variant))

	result.Created = created
	result.UploadedImages = refs
	return &result, nil
}

func (o *Orchestrator) step(ctx context.Context, step domain.Step, call func(ctx context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "submission."+step.String())
	defer span.End()

	err := call(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := domain.StatusCode(err); code != 0 {
			span.SetAttributes(attribute.Int("http.status_code", code))
		}
	}
	return err
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inProgress = false
}

func (o *Orchestrator) setStatus(status string) {
	o.mu.Lock()
	o.status = status
	o.mu.Unlock()

	o.logger.Debug("Status changed", "status", status)
	for _, l := range o.listeners {
		l(status)
	}
}

func (o *Orchestrator) record(rec domain.Record) {
	if o.repo == nil {
		return
	}
	// history must outlive a cancelled submission context
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := o.repo.InsertRecord(ctx, rec); err != nil {
		o.logger.Warn("Failed to record submission", "submission_id", rec.ID, "err", err)
	}
}

// IsGuardError reports whether err means the submission was never started
func IsGuardError(err error) bool {
	return errors.Is(err, domain.ErrSubmissionInProgress) ||
		errors.Is(err, domain.ErrNoFiles) ||
		errors.Is(err, domain.ErrUnknownVariant)
}
