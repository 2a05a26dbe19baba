package analysis

import (
	"context"
	"encoding/json"
)

// Backend port for the remote analysis service
type Backend interface {
	Submit(ctx context.Context, req Request, token string) (TriggerResponse, error)
	SubmitWebhook(ctx context.Context, ev PullRequestEvent, token string) (TriggerResponse, error)
	Status(ctx context.Context, id AnalysisID, token string) (Status, error)
	Fetch(ctx context.Context, id AnalysisID, token string) (json.RawMessage, error)
	List(ctx context.Context, page, limit int, token string) (RawPage, error)
	ApplyFix(ctx context.Context, id AnalysisID, index int, token string) (FixOutcome, error)
	Health(ctx context.Context) (HealthInfo, error)
}

// SnapshotRepository port (interface untuk persistence)
type SnapshotRepository interface {
	Save(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, id AnalysisID) (*Snapshot, error)
	Paginate(ctx context.Context, page, pageSize int) (PaginatedSnapshots, error)
}

// IncidentRepository persists absorbed failures
type IncidentRepository interface {
	Save(ctx context.Context, e *Incident) error
	ListByAnalysis(ctx context.Context, id AnalysisID, limit int) ([]*Incident, error)
}

// ArchiveStore keeps raw result payloads
type ArchiveStore interface {
	PutJSON(ctx context.Context, key string, payload []byte) (string, error)
}
