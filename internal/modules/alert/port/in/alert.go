package in

import (
	"context"

	"meetingd/internal/modules/alert/dto"
)

type Usecase interface {
	Report(ctx context.Context, input dto.ReportInput) (dto.ReportOutput, error)
	ListSinks(ctx context.Context) ([]dto.SinkInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Recent(ctx context.Context, input dto.RecentInput) ([]dto.AlertRecord, error)
}
