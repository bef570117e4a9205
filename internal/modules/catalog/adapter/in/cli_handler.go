package in

import (
	"context"

	"meetingd/internal/modules/catalog/dto"
	catalogin "meetingd/internal/modules/catalog/port/in"
)

type CLIHandler struct {
	usecase catalogin.Usecase
}

func NewCLIHandler(usecase catalogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context, organizationID, teamID, meetingType string) (dto.SectionsOutput, error) {
	return h.usecase.GetSections(ctx, dto.GetSectionsInput{OrganizationID: organizationID, TeamID: teamID, MeetingType: meetingType})
}

func (h CLIHandler) Set(ctx context.Context, input dto.SaveSectionsInput) (dto.SaveSectionsOutput, error) {
	return h.usecase.SaveSections(ctx, input)
}
