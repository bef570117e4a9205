package domain

import (
	"fmt"

	apperrors "meetingd/internal/platform/errors"
)

func invalidTransition(op string, s Session) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidTransition,
		fmt.Sprintf("cannot %s session %s while %s", op, s.ID, s.Status()),
		map[string]string{"session_id": s.ID, "status": string(s.Status())})
}

func unknownSection(requested, canonical string, accepted []string) error {
	return apperrors.WithMetadata(apperrors.CodeUnknownSection,
		fmt.Sprintf("unknown section %q", requested),
		map[string]string{
			"requested":                requested,
			"section_id":               canonical,
			apperrors.MetadataAccepted: apperrors.JoinAccepted(accepted),
		})
}

func sectionNotStarted(requested, canonical string, started []string) error {
	return apperrors.WithMetadata(apperrors.CodeSectionNotStarted,
		fmt.Sprintf("section %q is not in progress", requested),
		map[string]string{
			"requested":                requested,
			"section_id":               canonical,
			apperrors.MetadataAccepted: apperrors.JoinAccepted(started),
		})
}
