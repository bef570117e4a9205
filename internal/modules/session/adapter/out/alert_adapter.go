package out

import (
	"context"

	"github.com/sirupsen/logrus"

	alertdto "meetingd/internal/modules/alert/dto"
	alertin "meetingd/internal/modules/alert/port/in"
	sessionout "meetingd/internal/modules/session/port/out"
)

// AlertAdapter forwards session failures to the alert module. Reporting
// errors are logged and swallowed.
type AlertAdapter struct {
	alerts alertin.Usecase
	logger logrus.FieldLogger
}

func NewAlertAdapter(alerts alertin.Usecase, logger logrus.FieldLogger) sessionout.Alerter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AlertAdapter{alerts: alerts, logger: logger}
}

func (a *AlertAdapter) Report(ctx context.Context, alert sessionout.Alert) {
	message := alert.Message
	if message == "" {
		message = alert.ErrorType
	}
	if _, err := a.alerts.Report(ctx, alertdto.ReportInput{
		OrganizationID: alert.OrganizationID,
		TeamID:         alert.TeamID,
		SessionID:      alert.SessionID,
		UserID:         alert.UserID,
		ErrorType:      alert.ErrorType,
		Severity:       string(alert.Severity),
		Message:        message,
		Phase:          alert.Phase,
		Context:        alert.Context,
	}); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"session_id": alert.SessionID,
			"error_type": alert.ErrorType,
		}).Warn("alert report failed")
	}
}
