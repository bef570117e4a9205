package usecase

import (
	"context"

	"meetingd/internal/modules/alert/dto"
	alertin "meetingd/internal/modules/alert/port/in"
	"meetingd/internal/modules/alert/service"
)

type Interactor struct {
	svc *service.AlertService
}

func NewInteractor(svc *service.AlertService) alertin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Report(ctx context.Context, input dto.ReportInput) (dto.ReportOutput, error) {
	return i.svc.Report(ctx, input)
}

func (i *Interactor) ListSinks(ctx context.Context) ([]dto.SinkInfo, error) {
	return i.svc.ListSinks(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Recent(ctx context.Context, input dto.RecentInput) ([]dto.AlertRecord, error) {
	return i.svc.Recent(ctx, input)
}
