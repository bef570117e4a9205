package in

import (
	"context"
	"time"

	sessiondto "meetingd/internal/modules/session/dto"
	sessionin "meetingd/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx, input)
}

func (h CLIHandler) Pause(ctx context.Context, sessionID, actorID, reason string) (sessiondto.PauseOutput, error) {
	return h.usecase.Pause(ctx, sessiondto.PauseInput{SessionID: sessionID, ActorID: actorID, Reason: reason})
}

func (h CLIHandler) Resume(ctx context.Context, sessionID, actorID string) (sessiondto.PauseOutput, error) {
	return h.usecase.Resume(ctx, sessiondto.ResumeInput{SessionID: sessionID, ActorID: actorID})
}

func (h CLIHandler) StartSection(ctx context.Context, sessionID, sectionID string) (sessiondto.StartSectionOutput, error) {
	return h.usecase.StartSection(ctx, sessiondto.SectionInput{SessionID: sessionID, SectionID: sectionID})
}

func (h CLIHandler) EndSection(ctx context.Context, sessionID, sectionID string) (sessiondto.EndSectionOutput, error) {
	return h.usecase.EndSection(ctx, sessiondto.SectionInput{SessionID: sessionID, SectionID: sectionID})
}

func (h CLIHandler) End(ctx context.Context, sessionID, actorID string, conclusion *sessiondto.ConclusionInput) (sessiondto.EndOutput, error) {
	return h.usecase.End(ctx, sessiondto.EndInput{SessionID: sessionID, ActorID: actorID, Conclusion: conclusion})
}

func (h CLIHandler) Status(ctx context.Context, sessionID string) (sessiondto.StatusOutput, error) {
	return h.usecase.GetStatus(ctx, sessionID)
}

func (h CLIHandler) Active(ctx context.Context, teamID, meetingType string) (sessiondto.SessionView, error) {
	return h.usecase.GetActive(ctx, sessiondto.ActiveInput{TeamID: teamID, MeetingType: meetingType})
}

func (h CLIHandler) Cleanup(ctx context.Context, staleAfter time.Duration) (sessiondto.CleanupOutput, error) {
	return h.usecase.CleanupStale(ctx, sessiondto.CleanupInput{StaleAfter: staleAfter})
}
