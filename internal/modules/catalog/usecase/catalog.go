package usecase

import (
	"context"

	"meetingd/internal/modules/catalog/domain"
	"meetingd/internal/modules/catalog/dto"
	catalogin "meetingd/internal/modules/catalog/port/in"
	"meetingd/internal/modules/catalog/service"
)

type Interactor struct {
	svc *service.CatalogService
}

func NewInteractor(svc *service.CatalogService) catalogin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GetSections(ctx context.Context, input dto.GetSectionsInput) (dto.SectionsOutput, error) {
	sections, source, err := i.svc.Resolve(ctx, input.OrganizationID, input.TeamID, input.MeetingType)
	if err != nil {
		return dto.SectionsOutput{}, err
	}
	return dto.SectionsOutput{
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		MeetingType:    input.MeetingType,
		Source:         string(source),
		Sections:       toDTO(sections),
	}, nil
}

func (i *Interactor) SaveSections(ctx context.Context, input dto.SaveSectionsInput) (dto.SaveSectionsOutput, error) {
	sections := make([]domain.Section, 0, len(input.Sections))
	for _, section := range input.Sections {
		sections = append(sections, domain.Section{ID: section.ID, Name: section.Name, DurationMinutes: section.DurationMinutes})
	}
	saved, path, err := i.svc.Save(ctx, domain.Config{
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		Kind:           input.MeetingType,
		Sections:       sections,
	})
	if err != nil {
		return dto.SaveSectionsOutput{}, err
	}
	return dto.SaveSectionsOutput{Path: path, Sections: toDTO(saved.Sections)}, nil
}

func toDTO(sections []domain.Section) []dto.Section {
	out := make([]dto.Section, 0, len(sections))
	for _, section := range sections {
		out = append(out, dto.Section{ID: section.ID, Name: section.Name, DurationMinutes: section.DurationMinutes})
	}
	return out
}
