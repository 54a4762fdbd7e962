package orchestrator

import (
	"context"
)

// StageName identifies one ordered unit of the deployment pipeline.
type StageName string

const (
	StageContext  StageName = "context"
	StageSecrets  StageName = "secrets"
	StageStore    StageName = "store"
	StageServices StageName = "services"
	StageGateway  StageName = "gateway"
)

// Criticality governs how a readiness timeout is treated. It never softens
// a synchronous action failure; those halt the run regardless.
type Criticality int

const (
	// FatalOnFailure stages abort the run when their readiness wait times
	// out.
	FatalOnFailure Criticality = iota

	// WarnOnFailure stages log the timeout and let the run continue.
	// Image pulls and multi-pod stateful systems routinely exceed
	// conservative deadlines under load without indicating real failure;
	// downstream stages may still succeed once the dependency settles.
	WarnOnFailure
)

// Outcome is the terminal (or current) state of a stage within a run.
type Outcome string

const (
	OutcomePending  Outcome = "Pending"
	OutcomeRunning  Outcome = "Running"
	OutcomeReady    Outcome = "Ready"
	OutcomeDegraded Outcome = "Degraded"
	OutcomeSkipped  Outcome = "Skipped"
	OutcomeFailed   Outcome = "Failed"
)

// Stage is one row of the pipeline table: its identity, its skip directive,
// its timeout tolerance and the provisioning action to run. Keeping this
// declarative keeps ordering and policy visible in one place.
type Stage struct {
	Name        StageName
	Skip        bool
	Criticality Criticality
	Run         func(ctx context.Context) error
}

// Overlay names under the overlay root.
const (
	OverlayServices = "services"
	OverlayMCP      = "mcp"
)

// gatewaySelector matches the MCP gateway workloads rendered by the mcp
// overlay.
const gatewaySelector = "app.kubernetes.io/component=mcp"

// stageTable returns the pipeline in its fixed total order. Skip flags come
// from the run configuration; context and secrets can never be skipped.
func (o *Orchestrator) stageTable() []Stage {
	return []Stage{
		{Name: StageContext, Criticality: FatalOnFailure, Run: o.runContext},
		{Name: StageSecrets, Criticality: FatalOnFailure, Run: o.runSecrets},
		{Name: StageStore, Skip: o.cfg.SkipMilvus, Criticality: WarnOnFailure, Run: o.runStore},
		{Name: StageServices, Skip: o.cfg.SkipServices, Criticality: WarnOnFailure, Run: o.runServices},
		{Name: StageGateway, Skip: o.cfg.SkipMCP, Criticality: WarnOnFailure, Run: o.runGateway},
	}
}
