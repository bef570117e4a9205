package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"meetingd/internal/modules/alert/domain"
	"meetingd/internal/modules/alert/dto"
	alertout "meetingd/internal/modules/alert/port/out"
	"meetingd/internal/platform/clock"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/id"
)

const deliveryTimeout = 5 * time.Second

type AlertService struct {
	store    alertout.ManifestStore
	host     alertout.Host
	log      alertout.AlertLog
	throttle *OrgThrottle
	clock    clock.Clock
	ids      id.Generator
	logger   logrus.FieldLogger
}

type Options struct {
	Store    alertout.ManifestStore
	Host     alertout.Host
	Log      alertout.AlertLog
	Throttle *OrgThrottle
	Clock    clock.Clock
	IDs      id.Generator
	Logger   logrus.FieldLogger
}

func NewAlertService(opts Options) *AlertService {
	svc := &AlertService{
		store:    opts.Store,
		host:     opts.Host,
		log:      opts.Log,
		throttle: opts.Throttle,
		clock:    opts.Clock,
		ids:      opts.IDs,
		logger:   opts.Logger,
	}
	if svc.clock == nil {
		svc.clock = clock.SystemClock{}
	}
	if svc.ids == nil {
		svc.ids = id.UUID{}
	}
	if svc.logger == nil {
		svc.logger = logrus.StandardLogger()
	}
	return svc
}

// Report logs the alert, pushes notifiable alerts to sinks and records the outcome.
// Only an invalid alert is returned as an error; delivery problems are in the output.
func (s *AlertService) Report(ctx context.Context, input dto.ReportInput) (dto.ReportOutput, error) {
	alert, err := s.buildAlert(input)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	entry := s.logger.WithFields(logrus.Fields{
		"alert_id":        alert.ID,
		"organization_id": alert.OrganizationID,
		"team_id":         alert.TeamID,
		"session_id":      alert.SessionID,
		"error_type":      alert.Type,
		"phase":           alert.Phase,
	})
	switch alert.Severity {
	case domain.SeverityInfo:
		entry.Info(alert.Message)
	case domain.SeverityWarning:
		entry.Warn(alert.Message)
	default:
		entry.Error(alert.Message)
	}

	outcome := domain.Outcome{}
	if alert.Notifiable() {
		if s.throttle.Allow(alert.OrganizationID, alert.OccurredAt) {
			outcome.Deliveries = s.deliver(ctx, alert)
		} else {
			outcome.Throttled = true
			entry.Warn("alert delivery throttled")
		}
	}
	if s.log != nil {
		if err := s.log.Record(ctx, alert, outcome); err != nil {
			entry.WithError(err).Warn("record alert")
		}
	}

	output := dto.ReportOutput{AlertID: alert.ID, Severity: string(alert.Severity), Throttled: outcome.Throttled}
	for _, d := range outcome.Deliveries {
		output.Deliveries = append(output.Deliveries, dto.DeliveryResult{Sink: d.Sink, Delivered: d.Delivered(), Error: d.Error})
	}
	return output, nil
}

func (s *AlertService) buildAlert(input dto.ReportInput) (domain.Alert, error) {
	errorType := domain.ErrorType(strings.TrimSpace(input.ErrorType))
	severity := domain.Severity(strings.TrimSpace(input.Severity))
	if severity == "" {
		severity = domain.SeverityFor(errorType)
	}
	alert := domain.Alert{
		ID:             s.ids.New(),
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		SessionID:      input.SessionID,
		UserID:         input.UserID,
		Type:           errorType,
		Severity:       severity,
		Message:        input.Message,
		Phase:          input.Phase,
		Context:        input.Context,
		OccurredAt:     s.clock.Now().UTC(),
	}
	if err := alert.Validate(); err != nil {
		return domain.Alert{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid alert", err)
	}
	return alert, nil
}

func (s *AlertService) deliver(ctx context.Context, alert domain.Alert) []domain.Delivery {
	if s.store == nil || s.host == nil {
		return nil
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("load alert sinks")
		return nil
	}
	deliveries := make([]domain.Delivery, 0, len(manifests))
	for _, m := range manifests {
		if !m.Enabled || !m.Accepts(alert.Severity) {
			continue
		}
		delivery := domain.Delivery{Sink: m.Name}
		if err := s.deliverOne(ctx, m, alert); err != nil {
			delivery.Error = err.Error()
			s.logger.WithError(err).WithField("sink", m.Name).Warn("alert delivery failed")
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries
}

func (s *AlertService) deliverOne(ctx context.Context, m domain.SinkManifest, alert domain.Alert) error {
	if err := checksumMatches(m.Binary, m.SHA256); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	if err := s.host.Deliver(callCtx, m, alert); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", domain.ErrSinkTimeout, m.Name)
		}
		return err
	}
	return nil
}

func (s *AlertService) ListSinks(ctx context.Context) ([]dto.SinkInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SinkInfo, 0, len(manifests))
	for _, m := range manifests {
		min := m.MinSeverity
		if min == "" {
			min = domain.SeverityError
		}
		out = append(out, dto.SinkInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, MinSeverity: string(min)})
	}
	return out, nil
}

func (s *AlertService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			if err := s.host.CheckLifecycle(ctx, m); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *AlertService) Recent(ctx context.Context, input dto.RecentInput) ([]dto.AlertRecord, error) {
	if s.log == nil {
		return []dto.AlertRecord{}, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	records, err := s.log.Recent(ctx, input.OrganizationID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "list alerts", err)
	}
	out := make([]dto.AlertRecord, 0, len(records))
	for _, r := range records {
		out = append(out, dto.AlertRecord{
			ID:             r.Alert.ID,
			OrganizationID: r.Alert.OrganizationID,
			SessionID:      r.Alert.SessionID,
			ErrorType:      string(r.Alert.Type),
			Severity:       string(r.Alert.Severity),
			Message:        r.Alert.Message,
			Delivered:      r.Delivered,
			Throttled:      r.Throttled,
			OccurredAt:     r.Alert.OccurredAt,
		})
	}
	return out, nil
}

func (s *AlertService) loadValidated(ctx context.Context) ([]domain.SinkManifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("duplicate sink name: %s", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return manifests, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sink binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
