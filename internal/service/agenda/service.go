package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
)

// maxBlockRange bounds ListBlocks queries.
const maxBlockRange = 366

type AgendaServicer interface {
	CreateRule(ctx context.Context, rule *model.AvailabilityRule) error
	UpdateRule(ctx context.Context, rule *model.AvailabilityRule) error
	DeleteRule(ctx context.Context, professionalID, id uuid.UUID) error
	ListRules(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error)
	CreateBlock(ctx context.Context, block *model.AvailabilityBlock) error
	DeleteBlock(ctx context.Context, professionalID, id uuid.UUID) error
	ListBlocks(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error)
	CreateOffering(ctx context.Context, offering *model.ServiceOffering) error
	ListOfferings(ctx context.Context, professionalID uuid.UUID) ([]*model.ServiceOffering, error)
}

// Service lets a professional manage the rules, blocks and catalog their
// availability is generated from.
type Service struct {
	rules     repository.RuleRepository
	blocks    repository.BlockRepository
	offerings repository.OfferingRepository
	location  *time.Location
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(rules repository.RuleRepository, blocks repository.BlockRepository, offerings repository.OfferingRepository, location *time.Location, logger *logger.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		rules:     rules,
		blocks:    blocks,
		offerings: offerings,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) CreateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return err
	}
	s.logger.Info("availability rule created",
		"professional_id", rule.ProfessionalID.String(),
		"rule_id", rule.ID.String(),
		"weekday", rule.Weekday)
	return nil
}

func (s *Service) UpdateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	if rule.ID == uuid.Nil {
		return apperrors.Validation("rule id is required", nil)
	}
	if err := validateRule(rule); err != nil {
		return err
	}
	return s.rules.Update(ctx, rule)
}

func (s *Service) DeleteRule(ctx context.Context, professionalID, id uuid.UUID) error {
	if err := s.rules.Delete(ctx, professionalID, id); err != nil {
		return err
	}
	s.logger.Info("availability rule deleted", "professional_id", professionalID.String(), "rule_id", id.String())
	return nil
}

func (s *Service) ListRules(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error) {
	rules, err := s.rules.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// CreateBlock adds an exclusion. Blocks on past dates are refused.
func (s *Service) CreateBlock(ctx context.Context, block *model.AvailabilityBlock) error {
	if block.BlockDate.IsZero() {
		return apperrors.Validation("block_date is required", nil)
	}
	if block.BlockDate.Before(s.today()) {
		return apperrors.Validation("block_date is in the past", nil)
	}
	if err := validateRange(block.StartTime, block.EndTime); err != nil {
		return err
	}
	if block.Reason != nil {
		reason := strings.TrimSpace(*block.Reason)
		if reason == "" {
			block.Reason = nil
		} else {
			block.Reason = &reason
		}
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return err
	}
	s.logger.Info("availability block created",
		"professional_id", block.ProfessionalID.String(),
		"date", block.BlockDate.String(),
		"start", block.StartTime.String(),
		"end", block.EndTime.String())
	return nil
}

func (s *Service) DeleteBlock(ctx context.Context, professionalID, id uuid.UUID) error {
	return s.blocks.Delete(ctx, professionalID, id)
}

// ListBlocks returns blocks dated within [from, to]. A zero from means today
// and a zero to means 30 days after from.
func (s *Service) ListBlocks(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error) {
	if from.IsZero() {
		from = s.today()
	}
	if to.IsZero() {
		to = from.AddDays(30)
	}
	if to.Before(from) {
		return nil, apperrors.Validation("to must not be before from", nil)
	}
	if from.AddDays(maxBlockRange).Before(to) {
		return nil, apperrors.Validation(fmt.Sprintf("range may span at most %d days", maxBlockRange), nil)
	}
	blocks, err := s.blocks.ListInRange(ctx, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

func (s *Service) CreateOffering(ctx context.Context, offering *model.ServiceOffering) error {
	offering.Name = strings.TrimSpace(offering.Name)
	if offering.Name == "" {
		return apperrors.Validation("name is required", nil)
	}
	if offering.DurationMinutes <= 0 || offering.DurationMinutes > model.MinutesPerDay {
		return apperrors.Validation("duration_minutes must be between 1 and 1440", nil)
	}
	offering.Active = true
	return s.offerings.Create(ctx, offering)
}

// ListOfferings includes inactive entries; the public catalog does not.
func (s *Service) ListOfferings(ctx context.Context, professionalID uuid.UUID) ([]*model.ServiceOffering, error) {
	return s.offerings.ListByProfessional(ctx, professionalID, false)
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now().In(s.location))
}

// validateRule also fills in the default interval for a zero one.
func validateRule(rule *model.AvailabilityRule) error {
	if rule.SlotIntervalMinutes == 0 {
		rule.SlotIntervalMinutes = model.DefaultSlotInterval
	}
	if rule.ProfessionalID == uuid.Nil {
		return apperrors.Validation("professional_id is required", nil)
	}
	if rule.Weekday < 0 || rule.Weekday > 6 {
		return apperrors.Validation("weekday must be between 0 (Sunday) and 6 (Saturday)", nil)
	}
	if err := validateRange(rule.StartTime, rule.EndTime); err != nil {
		return err
	}
	if rule.SlotIntervalMinutes <= 0 {
		return apperrors.Validation("slot_interval_minutes must be positive", nil)
	}
	if rule.Capacity <= 0 {
		return apperrors.Validation("capacity must be at least 1", nil)
	}
	return nil
}

func validateRange(start, end model.Clock) error {
	if !start.Valid() || !end.Valid() {
		return apperrors.Validation("times must be within the day", nil)
	}
	if start >= end {
		return apperrors.Validation("start_time must be before end_time", nil)
	}
	return nil
}
