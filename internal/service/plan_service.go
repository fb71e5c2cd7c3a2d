package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hoangdanh165/devplanner/internal/event"
	"github.com/hoangdanh165/devplanner/internal/generator"
	"github.com/hoangdanh165/devplanner/internal/model"
)

type PlanStore interface {
	Create(ctx context.Context, p model.PlanRecord) error
	FindByID(ctx context.Context, id string) (model.PlanRecord, error)
	ListByUser(ctx context.Context, userID string, page int, pageSize int) ([]model.PlanRecord, int, error)
	SetVersion(ctx context.Context, planID string, version int) error
	StoreVersion(ctx context.Context, v model.PlanVersion) error
	FindVersion(ctx context.Context, planID string, version int) (model.PlanVersion, error)
	Delete(ctx context.Context, id string) error
}

const defaultPageSize = 10

type generationRecorder interface {
	RecordGeneration(duration time.Duration)
}

type PlanService struct {
	plans     PlanStore
	gen       generator.Generator
	bus       event.Bus
	metrics   generationRecorder
	sanitizer *bluemonday.Policy
}

func NewPlanService(plans PlanStore, gen generator.Generator, bus event.Bus, metrics generationRecorder) *PlanService {
	return &PlanService{
		plans:   plans,
		gen:     gen,
		bus:     bus,
		metrics: metrics,
		// Generated docs may embed HTML; strip anything a browser would
		// execute before it is stored.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Create stores a new plan and runs the first generation synchronously.
func (s *PlanService) Create(ctx context.Context, userID string, name string, brief string) (model.PlanRecord, error) {
	name = strings.TrimSpace(name)
	brief = strings.TrimSpace(brief)
	if name == "" || brief == "" {
		return model.PlanRecord{}, model.ErrInvalidInput
	}

	now := time.Now().UTC()
	plan := model.PlanRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Brief:     brief,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return model.PlanRecord{}, err
	}

	plan, err := s.generate(ctx, plan)
	if err != nil {
		return model.PlanRecord{}, err
	}

	s.publish(event.TypePlanCreated, userID, map[string]string{"planId": plan.ID})
	return plan, nil
}

// Regenerate runs generation again and bumps the plan version. Earlier
// versions stay addressable.
func (s *PlanService) Regenerate(ctx context.Context, userID string, planID string) (model.PlanRecord, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return model.PlanRecord{}, err
	}

	plan, err = s.generate(ctx, plan)
	if err != nil {
		return model.PlanRecord{}, err
	}

	s.publish(event.TypePlanRegenerated, userID, map[string]any{"planId": plan.ID, "version": plan.Version})
	return plan, nil
}

func (s *PlanService) Get(ctx context.Context, userID string, planID string) (model.PlanRecord, model.PlanVersion, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return model.PlanRecord{}, model.PlanVersion{}, err
	}

	version, err := s.plans.FindVersion(ctx, plan.ID, plan.Version)
	if err != nil {
		return model.PlanRecord{}, model.PlanVersion{}, err
	}
	return plan, version, nil
}

func (s *PlanService) GetVersion(ctx context.Context, userID string, planID string, version int) (model.PlanVersion, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return model.PlanVersion{}, err
	}
	return s.plans.FindVersion(ctx, plan.ID, version)
}

func (s *PlanService) List(ctx context.Context, userID string, page int) ([]model.PlanRecord, *model.Meta, error) {
	if page < 1 {
		page = 1
	}

	plans, total, err := s.plans.ListByUser(ctx, userID, page, defaultPageSize)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + defaultPageSize - 1) / defaultPageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return plans, &model.Meta{
		Page:       page,
		Limit:      defaultPageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *PlanService) Delete(ctx context.Context, userID string, planID string) error {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}

	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return err
	}

	s.publish(event.TypePlanDeleted, userID, map[string]string{"planId": plan.ID})
	return nil
}

// Export renders the latest version as a single markdown document. Sections
// that are not valid JSON are embedded as literal text, never dropped.
func (s *PlanService) Export(ctx context.Context, userID string, planID string) (string, error) {
	plan, version, err := s.Get(ctx, userID, planID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.Name)
	fmt.Fprintf(&b, "> %s\n\n", plan.Brief)
	fmt.Fprintf(&b, "_Version %d, generated %s_\n", version.Version, version.CreatedAt.Format(time.RFC3339))

	for _, kind := range model.SectionKinds() {
		content, ok := version.Sections[kind]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", sectionTitle(kind))
		if kind == model.SectionDocs {
			b.WriteString(content)
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "```json\n%s\n```\n", content)
	}

	return b.String(), nil
}

func (s *PlanService) ownedPlan(ctx context.Context, userID string, planID string) (model.PlanRecord, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return model.PlanRecord{}, err
	}
	if plan.UserID != userID {
		// Hide the plan's existence from other users.
		return model.PlanRecord{}, model.ErrPlanNotFound
	}
	return plan, nil
}

func (s *PlanService) generate(ctx context.Context, plan model.PlanRecord) (model.PlanRecord, error) {
	status := func(message string) {
		s.publish(event.TypeThinkingStatus, plan.UserID, map[string]string{
			"planId":  plan.ID,
			"message": message,
		})
	}

	started := time.Now()
	sections, err := s.gen.Generate(ctx, plan.Brief, status)
	if s.metrics != nil {
		s.metrics.RecordGeneration(time.Since(started))
	}
	if err != nil {
		s.publish(event.TypeGenerationFailed, plan.UserID, map[string]string{
			"planId": plan.ID,
			"error":  err.Error(),
		})
		return model.PlanRecord{}, fmt.Errorf("generate plan sections: %w", err)
	}

	if docs, ok := sections[model.SectionDocs]; ok {
		sections[model.SectionDocs] = s.sanitizer.Sanitize(docs)
	}

	next := plan.Version + 1
	if err := s.plans.StoreVersion(ctx, model.PlanVersion{
		PlanID:    plan.ID,
		Version:   next,
		Sections:  sections,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return model.PlanRecord{}, err
	}

	if err := s.plans.SetVersion(ctx, plan.ID, next); err != nil {
		return model.PlanRecord{}, err
	}

	plan.Version = next
	plan.UpdatedAt = time.Now().UTC()
	return plan, nil
}

func (s *PlanService) publish(t event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ActorID:   actorID,
	})
}

func sectionTitle(kind string) string {
	switch kind {
	case model.SectionOverview:
		return "Overview"
	case model.SectionFeatures:
		return "Features"
	case model.SectionTechStack:
		return "Tech Stack"
	case model.SectionTasks:
		return "Tasks"
	case model.SectionDiagrams:
		return "Diagrams"
	case model.SectionDocs:
		return "Docs"
	default:
		return kind
	}
}
