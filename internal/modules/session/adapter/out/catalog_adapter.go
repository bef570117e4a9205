package out

import (
	"context"

	catalogdto "meetingd/internal/modules/catalog/dto"
	catalogin "meetingd/internal/modules/catalog/port/in"
	"meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
)

// CatalogAdapter reads the agenda through the catalog module.
type CatalogAdapter struct {
	catalog catalogin.Usecase
}

func NewCatalogAdapter(catalog catalogin.Usecase) sessionout.SectionCatalog {
	return &CatalogAdapter{catalog: catalog}
}

func (a *CatalogAdapter) Sections(ctx context.Context, organizationID, teamID, kind string) (domain.Catalog, error) {
	out, err := a.catalog.GetSections(ctx, catalogdto.GetSectionsInput{
		OrganizationID: organizationID,
		TeamID:         teamID,
		MeetingType:    kind,
	})
	if err != nil {
		return nil, err
	}
	catalog := make(domain.Catalog, 0, len(out.Sections))
	for _, section := range out.Sections {
		catalog = append(catalog, domain.Section{ID: section.ID, Name: section.Name, DurationMinutes: section.DurationMinutes})
	}
	return catalog, nil
}
