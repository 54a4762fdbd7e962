package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"ragctl/internal/config"
	"ragctl/internal/kube"
	"ragctl/pkg/logging"
)

// ErrPreconditionFailed marks conditions that make the whole run pointless:
// a missing target namespace, a denied permission probe. Always fatal,
// checked before any mutating stage.
var ErrPreconditionFailed = errors.New("precondition failed")

// Orchestrator executes the pipeline once. It holds no shared mutable state
// beyond the resolved namespace, which is written exactly once by the
// context stage and read-only afterwards.
type Orchestrator struct {
	cfg  *config.Config
	deps Deps

	// namespace is the effective namespace, set by runContext.
	namespace string
}

// New creates an orchestrator for one run. The config is treated as
// immutable from here on.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	deps.applyDefaults()
	return &Orchestrator{cfg: cfg, deps: deps}
}

// Run executes the stage table front to back, exactly once per stage, and
// stops on the first fatal failure. The returned record is always non-nil
// and covers every stage, including the ones never reached.
//
// A nil error means the rollout is usable: Ready everywhere, or Degraded on
// warn-tolerant stages.
func (o *Orchestrator) Run(ctx context.Context) (*RunRecord, error) {
	return o.execute(ctx, o.stageTable())
}

func (o *Orchestrator) execute(ctx context.Context, stages []Stage) (*RunRecord, error) {
	record := newRunRecord(stages)

	for _, stage := range stages {
		if stage.Skip {
			logging.Info("Sequencer", "Stage %s skipped by directive", stage.Name)
			record.set(stage.Name, OutcomeSkipped, "skip directive set", nil)
			continue
		}

		logging.Info("Sequencer", "Stage %s starting", stage.Name)
		record.set(stage.Name, OutcomeRunning, "", nil)

		err := stage.Run(ctx)
		record.Namespace = o.namespace

		switch classifyReadiness(err) {
		case ReadinessReady:
			record.set(stage.Name, OutcomeReady, "", nil)
			logging.Info("Sequencer", "Stage %s ready", stage.Name)

		case ReadinessTimedOut:
			if stage.Criticality == WarnOnFailure {
				record.set(stage.Name, OutcomeDegraded, err.Error(), nil)
				logging.Warn("Sequencer", "Stage %s degraded: %v (continuing)", stage.Name, err)
				continue
			}
			record.set(stage.Name, OutcomeFailed, "", err)
			logging.Error("Sequencer", err, "Stage %s timed out and is fatal, halting", stage.Name)
			return record, fmt.Errorf("stage %s: %w", stage.Name, err)

		default:
			record.set(stage.Name, OutcomeFailed, "", err)
			logging.Error("Sequencer", err, "Stage %s failed, halting", stage.Name)
			return record, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}

	return record, nil
}

// runContext resolves the single effective namespace for the run and proves
// the run may act in it. Nothing here mutates the cluster.
func (o *Orchestrator) runContext(ctx context.Context) error {
	operator := o.cfg.Namespace

	if ambient, ok := o.deps.InClusterNamespace(); ok {
		if ambient != operator {
			logging.Warn("Context", "Running in-cluster: ambient namespace %q overrides configured %q", ambient, operator)
		}
		o.namespace = ambient
	} else {
		// Outside the cluster the namespace must already exist; this
		// tool provisions into namespaces, never provisions them.
		exists, err := o.deps.Cluster.NamespaceExists(ctx, operator)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %w: namespace %q must exist before deploying",
				ErrPreconditionFailed, kube.ErrNamespaceNotFound, operator)
		}
		o.namespace = operator
	}

	allowed, err := o.deps.Cluster.CanListSecrets(ctx, o.namespace)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %w: current identity may not act in namespace %q",
			ErrPreconditionFailed, kube.ErrAccessDenied, o.namespace)
	}

	logging.Info("Context", "Deploying into namespace %q", o.namespace)
	return nil
}
