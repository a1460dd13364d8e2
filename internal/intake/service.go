// Package intake orchestrates one submission: shape validation, team
// resolution, partition provisioning, the global uniqueness check, record
// assembly, and the append.
package intake

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/common/metrics"
	"recruit-intake/internal/common/observability"
	"recruit-intake/internal/notify"
	"recruit-intake/internal/provision"
	"recruit-intake/internal/store"
	"recruit-intake/internal/unique"
	"recruit-intake/pkg/registry"
)

// payloadSchema is the shape precondition checked before any store
// interaction: basicDetails must be present with a non-empty team.
var payloadSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"basicDetails"},
	"properties": map[string]interface{}{
		"basicDetails": map[string]interface{}{
			"type":     "object",
			"required": []string{"team"},
			"properties": map[string]interface{}{
				"team": map[string]interface{}{
					"type":      "string",
					"minLength": 1,
				},
			},
		},
	},
}

type Service struct {
	registry    *registry.Registry
	store       store.TabularStore
	provisioner *provision.Provisioner
	checker     *unique.Checker
	logger      logger.Logger

	mailer *notify.Mailer
	obs    *observability.Observability

	// serializes the provision -> scan -> append sequence; the uniqueness
	// check is check-then-act against a store with no cross-row transactions,
	// so a single-instance deployment closes the race here.
	mu        sync.Mutex
	serialize bool

	now func() time.Time
}

// Options carry the optional collaborators of the service.
type Options struct {
	Mailer               *notify.Mailer
	Observability        *observability.Observability
	SerializeSubmissions bool

	// Now overrides the submission clock in tests.
	Now func() time.Time
}

func NewService(reg *registry.Registry, st store.TabularStore, prov *provision.Provisioner, checker *unique.Checker, log logger.Logger, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		registry:    reg,
		store:       st,
		provisioner: prov,
		checker:     checker,
		logger:      log.WithFields(map[string]interface{}{"component": "intake"}),
		mailer:      opts.Mailer,
		obs:         opts.Observability,
		serialize:   opts.SerializeSubmissions,
		now:         now,
	}
}

// Submit processes one raw application body and either appends exactly one
// record to the team's partition or rejects with a *errors.StandardError.
func (s *Service) Submit(ctx context.Context, rawPayload []byte) (*Result, error) {
	metrics.SubmissionsReceived.Inc()
	start := time.Now()

	result, err := s.submit(ctx, rawPayload)
	if err != nil {
		stdErr := apperrors.AsStandardError(err)
		metrics.SubmissionsRejected.WithLabelValues(string(stdErr.Code)).Inc()
		s.recordOutcome(ctx, start, "rejected")
		return nil, stdErr
	}

	metrics.SubmissionsAccepted.WithLabelValues(result.Team).Inc()
	s.recordOutcome(ctx, start, "accepted")
	return result, nil
}

func (s *Service) submit(ctx context.Context, rawPayload []byte) (*Result, error) {
	payload, err := s.validatePayload(rawPayload)
	if err != nil {
		return nil, err
	}

	descriptor, ok := s.registry.ResolveTeam(payload.BasicDetails.Team)
	if !ok {
		return nil, apperrors.NewInvalidTeamError(payload.BasicDetails.Team)
	}

	usn := unique.Normalize(payload.BasicDetails.USN)
	if usn == "" {
		return nil, apperrors.NewInvalidIdentifierError("usn must not be empty")
	}

	if s.serialize {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	if err := s.provisioner.EnsurePartition(ctx, descriptor.Slug); err != nil {
		return nil, err
	}

	duplicate, err := s.checker.IsDuplicate(ctx, usn)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperrors.NewDuplicateIdentifierError(usn)
	}

	submittedAt := s.now().UTC()
	row := s.assembleRecord(descriptor, payload, submittedAt)

	if err := s.store.AppendRow(ctx, descriptor.DisplayName, row); err != nil {
		return nil, apperrors.NewStoreUnavailableError("append-record", err)
	}

	s.checker.Remember(ctx, usn)

	result := &Result{
		SubmissionID: uuid.New().String(),
		Team:         descriptor.DisplayName,
		SubmittedAt:  submittedAt,
	}

	s.logger.Info("application recorded", map[string]interface{}{
		"submissionId": result.SubmissionID,
		"team":         descriptor.Slug,
		"usn":          usn,
	})

	s.sendConfirmation(ctx, payload, descriptor)

	return result, nil
}

// validatePayload checks the body shape and decodes it. Shape failures are
// MISSING_BASIC_DETAILS: they mean the client skipped the basic-info step.
func (s *Service) validatePayload(rawPayload []byte) (*SubmissionPayload, error) {
	schemaLoader := gojsonschema.NewGoLoader(payloadSchema)
	documentLoader := gojsonschema.NewBytesLoader(rawPayload)

	validation, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, apperrors.NewMissingBasicDetailsError(err.Error())
	}
	if !validation.Valid() {
		details := ""
		for _, desc := range validation.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return nil, apperrors.NewMissingBasicDetailsError(details)
	}

	var payload SubmissionPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, apperrors.NewMissingBasicDetailsError(err.Error())
	}
	return &payload, nil
}

// assembleRecord builds the row in header order: timestamp, the basic fields
// in fixed order, then the team answers mapped onto the declared question
// columns. Unknown answer keys are dropped and missing ones become empty
// cells so client/server schema drift degrades instead of failing.
func (s *Service) assembleRecord(d *registry.TeamDescriptor, payload *SubmissionPayload, submittedAt time.Time) []string {
	b := payload.BasicDetails
	row := make([]string, 0, len(registry.BasicHeaders)+len(d.Questions))
	row = append(row,
		submittedAt.Format(time.RFC3339),
		b.Name,
		b.USN,
		b.CollegeEmail,
		b.PersonalEmail,
		b.Phone,
		b.Department,
		b.Semester,
		b.OtherClubs,
		b.Team,
	)

	answers := payload.AnswersFor(d.AnswersKey())
	for _, q := range d.Questions {
		row = append(row, answers[q.Key])
	}
	return row
}

// sendConfirmation is best effort: a notification failure never fails an
// accepted submission.
func (s *Service) sendConfirmation(ctx context.Context, payload *SubmissionPayload, d *registry.TeamDescriptor) {
	if s.mailer == nil || payload.BasicDetails.CollegeEmail == "" {
		return
	}
	if err := s.mailer.SendConfirmation(ctx, payload.BasicDetails.CollegeEmail, payload.BasicDetails.Name, d.DisplayName); err != nil {
		s.logger.Warn("confirmation email failed", map[string]interface{}{
			"team":  d.Slug,
			"error": err.Error(),
		})
	}
}

func (s *Service) recordOutcome(ctx context.Context, start time.Time, status string) {
	elapsed := time.Since(start)
	metrics.SubmissionDuration.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordSubmissionProcessed(ctx, status)
		s.obs.RecordSubmissionDuration(ctx, elapsed, status)
	}
}

// CheckIdentifier answers the advisory pre-validation endpoint: true when
// the identifier is not yet registered anywhere. The authoritative check is
// the one inside Submit.
func (s *Service) CheckIdentifier(ctx context.Context, identifier string) (bool, error) {
	duplicate, err := s.checker.IsDuplicate(ctx, identifier)
	if err != nil {
		return false, apperrors.AsStandardError(err)
	}
	return !duplicate, nil
}

// RepairPartition re-runs idempotent provisioning for a team, writing the
// header row if it is missing.
func (s *Service) RepairPartition(ctx context.Context, slug string) error {
	return s.provisioner.Repair(ctx, slug)
}
