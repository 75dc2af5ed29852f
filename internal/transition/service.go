package transition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cascade-engine/internal/cascade"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
	"cascade-engine/internal/store"
)

// DefaultConcurrency bounds PreviewBatch when no limit is configured.
const DefaultConcurrency = 4

var (
	// ErrTerminalStage is returned when the project has no next stage.
	ErrTerminalStage = errors.New("project is at the terminal stage")
	// ErrConflict is returned when another advance committed first.
	ErrConflict = store.ErrConflict
)

// Preview is the outcome of a dry run.
type Preview struct {
	ProjectID   string                  `json:"projectId"`
	FromStage   stage.Stage             `json:"fromStage"`
	ToStage     stage.Stage             `json:"toStage"`
	PrefillData project.Fields          `json:"prefillData"`
	Results     []cascade.PrefillResult `json:"results"`
	Summary     cascade.Summary         `json:"summary"`
}

// Advance is the outcome of a committed transition.
type Advance struct {
	Project        *project.Project        `json:"project"`
	PrefillResults []cascade.PrefillResult `json:"prefillResults"`
	AdvancedFrom   stage.Stage             `json:"advancedFrom"`
	AdvancedTo     stage.Stage             `json:"advancedTo"`
	// Written lists the fields the cascade filled; Kept lists the fields
	// that already held an operator value.
	Written []string        `json:"written"`
	Kept    []string        `json:"kept,omitempty"`
	Summary cascade.Summary `json:"summary"`
}

// Service runs stage transitions against a store.
type Service struct {
	store       store.Store
	resolver    *cascade.Resolver
	log         *zap.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithConcurrency bounds the number of projects PreviewBatch resolves at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service.
func NewService(st store.Store, resolver *cascade.Resolver, opts ...Option) *Service {
	s := &Service{
		store:       st,
		resolver:    resolver,
		log:         zap.NewNop(),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// pending is a loaded project with its resolved cascade.
type pending struct {
	project *project.Project
	to      stage.Stage
	plan    *cascade.Plan
}

func (s *Service) resolve(ctx context.Context, projectID string) (*pending, error) {
	p, err := s.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	tr, ok := stage.Forward(p.CurrentStage)
	if !ok {
		return nil, fmt.Errorf("project %q at %s: %w", projectID, p.CurrentStage, ErrTerminalStage)
	}

	to := tr.To

	snapshot, err := s.store.LoadScopingSnapshot(ctx, p.ScopingFormID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoping snapshot: %w", err)
	}

	plan, err := s.resolver.Resolve(p.CurrentStage, to, snapshot, p.StageData)
	if err != nil {
		return nil, err
	}

	return &pending{project: p, to: to, plan: plan}, nil
}

// Preview resolves the next transition of a project without changing it.
func (s *Service) Preview(ctx context.Context, projectID string) (*Preview, error) {
	pd, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := pd.plan.Summary()
	s.log.Debug("transition: preview",
		zap.String("project", projectID),
		zap.Stringer("from", pd.project.CurrentStage),
		zap.Stringer("to", pd.to),
		zap.Int("resolved", summary.Resolved),
		zap.Strings("skipped", targets(pd.plan.Skipped())),
	)

	return &Preview{
		ProjectID:   projectID,
		FromStage:   pd.project.CurrentStage,
		ToStage:     pd.to,
		PrefillData: pd.plan.Data,
		Results:     pd.plan.Results,
		Summary:     summary,
	}, nil
}

// Advance moves a project to its next stage and persists the prefilled
// destination bucket.
func (s *Service) Advance(ctx context.Context, projectID string) (*Advance, error) {
	pd, err := s.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	p := pd.project
	from := p.CurrentStage
	expected := p.Version

	written, kept := p.ApplyPrefill(pd.to, pd.plan.Data)
	p.CurrentStage = pd.to

	log := s.log.With(zap.String("project", projectID), zap.Stringer("from", from), zap.Stringer("to", pd.to))

	if err := s.store.Persist(ctx, p, expected); err != nil {
		if errors.Is(err, ErrConflict) {
			log.Warn("transition: concurrent advance", zap.Int64("expected_version", expected), zap.Error(err))
		}

		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	summary := pd.plan.Summary()
	log.Info("transition: advanced",
		zap.Int("resolved", len(pd.plan.Resolved())),
		zap.Int("written", len(written)),
		zap.Int("kept", len(kept)),
		zap.Int("skipped", summary.Skipped),
		zap.Int64("version", p.Version),
	)

	if len(kept) > 0 {
		log.Debug("transition: kept operator values", zap.Strings("fields", kept))
	}

	return &Advance{
		Project:        p,
		PrefillResults: pd.plan.Results,
		AdvancedFrom:   from,
		AdvancedTo:     pd.to,
		Written:        written,
		Kept:           kept,
		Summary:        summary,
	}, nil
}

// PreviewBatch previews several projects concurrently. Results keep the order
// of ids. The first failure cancels the remaining previews.
func (s *Service) PreviewBatch(ctx context.Context, ids []string) ([]*Preview, error) {
	out := make([]*Preview, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			pv, err := s.Preview(gCtx, id)
			if err != nil {
				return fmt.Errorf("preview %q: %w", id, err)
			}

			out[i] = pv

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Warn("transition: batch preview failed", zap.Int("projects", len(ids)), zap.Error(err))
		return nil, err
	}

	return out, nil
}

func targets(results []cascade.PrefillResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Mapping.TargetField
	}

	return out
}
