package in

import (
	"context"

	"meetingd/internal/modules/catalog/dto"
)

type Usecase interface {
	GetSections(ctx context.Context, input dto.GetSectionsInput) (dto.SectionsOutput, error)
	SaveSections(ctx context.Context, input dto.SaveSectionsInput) (dto.SaveSectionsOutput, error)
}
