// Package loader drives the dual warehouse load for one notified object:
// full-schema load, required-only load, then best-effort source delete.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/withObsrvr/obsrvr-avro-bridge/internal/avro"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/config"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/logging"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/metrics"
	"github.com/withObsrvr/obsrvr-avro-bridge/internal/storage"
)

// State is a stage in the load lifecycle.
type State string

const (
	StateInit              State = "init"
	StateSubmittedAll      State = "submitted_all"
	StateAwaitingAll       State = "awaiting_all"
	StateSubmittedRequired State = "submitted_required"
	StateAwaitingRequired  State = "awaiting_required"
	StateDeleting          State = "deleting"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

type trigger string

const (
	triggerSubmitAll      trigger = "submit_all"
	triggerAwait          trigger = "await"
	triggerSubmitRequired trigger = "submit_required"
	triggerDelete         trigger = "delete"
	triggerDone           trigger = "done"
	triggerFail           trigger = "fail"
)

// newMachine builds the lifecycle state machine. Every non-terminal state
// permits the failure transition.
func newMachine() *stateless.StateMachine {
	m := stateless.NewStateMachine(StateInit)

	m.Configure(StateInit).
		Permit(triggerSubmitAll, StateSubmittedAll).
		Permit(triggerFail, StateFailed)

	m.Configure(StateSubmittedAll).
		Permit(triggerAwait, StateAwaitingAll).
		Permit(triggerFail, StateFailed)

	m.Configure(StateAwaitingAll).
		Permit(triggerSubmitRequired, StateSubmittedRequired).
		Permit(triggerFail, StateFailed)

	m.Configure(StateSubmittedRequired).
		Permit(triggerAwait, StateAwaitingRequired).
		Permit(triggerFail, StateFailed)

	m.Configure(StateAwaitingRequired).
		Permit(triggerDelete, StateDeleting).
		Permit(triggerFail, StateFailed)

	// Delete is best-effort: the machine always reaches done from deleting.
	m.Configure(StateDeleting).
		Permit(triggerDone, StateDone)

	return m
}

// Result summarizes a finished orchestration.
type Result struct {
	State          State
	SourceURI      string
	Deleted        bool
	FieldsAll      int
	FieldsRequired int
}

// Orchestrator runs the load lifecycle for notified objects. It holds no
// per-request state; one Load call is one lifecycle.
type Orchestrator struct {
	cfg     config.LoadConfig
	store   storage.ObjectStore
	runner  JobRunner
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New creates an orchestrator over the given collaborators.
func New(cfg config.LoadConfig, store storage.ObjectStore, runner JobRunner, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		runner:  runner,
		metrics: m,
		log:     logging.Component("loader"),
	}
}

// Load fetches the object's embedded schema, submits the full load, then the
// required-only load, and deletes the source object once both have reached a
// successful terminal status. The two loads are strictly sequential. A failed
// delete still yields a successful result; the loads stand.
func (o *Orchestrator) Load(ctx context.Context, ref storage.ObjectRef) (Result, error) {
	done := o.metrics.LoadStarted()
	defer done()

	log := o.log.With(
		"request_id", logging.RequestID(ctx),
		"bucket", ref.Bucket,
		"object", ref.Name,
		"generation", ref.Generation,
	)

	m := newMachine()
	res := Result{State: machineState(m), SourceURI: ref.URI()}

	fail := func(err error) (Result, error) {
		o.fire(m, triggerFail)
		res.State = machineState(m)
		return res, err
	}

	payload, err := o.store.Fetch(ctx, ref)
	if err != nil {
		return fail(fmt.Errorf("fetch object: %w", err))
	}
	if len(payload) == 0 {
		return fail(fmt.Errorf("object %s is empty", ref))
	}

	schema, err := avro.SchemaFromOCF(bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("extract schema from %s: %w", ref, err))
	}

	// Project both variants up front so translation failures surface before
	// anything is submitted.
	schemaAll, err := avro.Project(schema, false)
	if err != nil {
		return fail(fmt.Errorf("project full schema: %w", err))
	}
	schemaRequired, err := avro.Project(schema, true)
	if err != nil {
		return fail(fmt.Errorf("project required-only schema: %w", err))
	}
	res.FieldsAll = len(schemaAll)
	res.FieldsRequired = len(schemaRequired)

	log.Info("starting load",
		"record", schema.Name,
		"fields_all", res.FieldsAll,
		"fields_required", res.FieldsRequired,
	)

	// Full load: schema unset, the warehouse infers it from the file.
	if err := o.runJob(ctx, m, triggerSubmitAll, JobSpec{
		Dataset:   o.cfg.Dataset,
		Table:     o.cfg.TableAll,
		SourceURI: ref.URI(),
	}); err != nil {
		log.Error("full load failed", "table", o.cfg.TableAll, "error", err)
		return fail(err)
	}

	// Required-only load: schema set explicitly to the projection.
	if err := o.runJob(ctx, m, triggerSubmitRequired, JobSpec{
		Dataset:   o.cfg.Dataset,
		Table:     o.cfg.TableRequired,
		SourceURI: ref.URI(),
		Schema:    schemaRequired,
	}); err != nil {
		log.Error("required-only load failed", "table", o.cfg.TableRequired, "error", err)
		return fail(err)
	}

	o.fire(m, triggerDelete)
	res.State = machineState(m)

	deleted, err := o.store.Delete(ctx, ref.Bucket, ref.Name)
	if err != nil || !deleted {
		// A retry of the notification would re-append to the full table, so
		// leave cleanup to the bucket's lifecycle policy rather than failing.
		log.Warn("source delete failed, loads stand", "error", err)
		o.metrics.Delete("failed")
	} else {
		log.Info("source object deleted")
		o.metrics.Delete("ok")
		res.Deleted = true
	}

	o.fire(m, triggerDone)
	res.State = machineState(m)

	log.Info("load complete", "deleted", res.Deleted)
	return res, nil
}

// runJob submits one load job and blocks until its terminal status.
func (o *Orchestrator) runJob(ctx context.Context, m *stateless.StateMachine, submit trigger, spec JobSpec) error {
	start := time.Now()

	job, err := o.runner.Submit(ctx, spec)
	if err != nil {
		o.metrics.JobDone(spec.Table, "submit_error", time.Since(start))
		return fmt.Errorf("submit load for table %s: %w", spec.Table, err)
	}
	o.fire(m, submit)
	o.fire(m, triggerAwait)

	if err := job.Wait(ctx); err != nil {
		o.metrics.JobDone(spec.Table, "failed", time.Since(start))
		return fmt.Errorf("load for table %s: %w", spec.Table, err)
	}

	o.metrics.JobDone(spec.Table, "succeeded", time.Since(start))
	return nil
}

// fire advances the machine. A rejected transition is a programming error in
// the lifecycle wiring, not a runtime condition.
func (o *Orchestrator) fire(m *stateless.StateMachine, t trigger) {
	if err := m.Fire(t); err != nil {
		o.log.Error("illegal lifecycle transition", "trigger", string(t), "state", m.MustState(), "error", err)
	}
}

// machineState reads the machine's current state. The machine is built over
// State values only, so the assertion cannot fail.
func machineState(m *stateless.StateMachine) State {
	return m.MustState().(State)
}
