package in

import (
	"context"

	"meetingd/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Pause(ctx context.Context, input dto.PauseInput) (dto.PauseOutput, error)
	Resume(ctx context.Context, input dto.ResumeInput) (dto.PauseOutput, error)
	StartSection(ctx context.Context, input dto.SectionInput) (dto.StartSectionOutput, error)
	EndSection(ctx context.Context, input dto.SectionInput) (dto.EndSectionOutput, error)
	End(ctx context.Context, input dto.EndInput) (dto.EndOutput, error)
	GetStatus(ctx context.Context, sessionID string) (dto.StatusOutput, error)
	GetActive(ctx context.Context, input dto.ActiveInput) (dto.SessionView, error)
	CleanupStale(ctx context.Context, input dto.CleanupInput) (dto.CleanupOutput, error)
}
