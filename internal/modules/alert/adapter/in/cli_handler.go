package in

import (
	"context"

	"meetingd/internal/modules/alert/dto"
	alertin "meetingd/internal/modules/alert/port/in"
)

type CLIHandler struct {
	usecase alertin.Usecase
}

func NewCLIHandler(usecase alertin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Sinks(ctx context.Context) ([]dto.SinkInfo, error) {
	return h.usecase.ListSinks(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

// Test reports a synthetic alert through the full delivery path.
func (h CLIHandler) Test(ctx context.Context, organizationID, severity string) (dto.ReportOutput, error) {
	return h.usecase.Report(ctx, dto.ReportInput{
		OrganizationID: organizationID,
		ErrorType:      "unexpected_error",
		Severity:       severity,
		Message:        "meetingd test alert",
		Phase:          "diagnostics",
	})
}

func (h CLIHandler) Recent(ctx context.Context, organizationID string, limit int) ([]dto.AlertRecord, error) {
	return h.usecase.Recent(ctx, dto.RecentInput{OrganizationID: organizationID, Limit: limit})
}
