package service

import (
	"sort"
	"time"

	"meetingd/internal/modules/session/domain"
	"meetingd/internal/modules/session/dto"
)

const (
	SectionPending    = "pending"
	SectionInProgress = "in_progress"
	SectionCompleted  = "completed"
)

// View renders the session with live durations taken at now.
func (s *SessionService) View(session domain.Session, now time.Time) dto.SessionView {
	view := dto.SessionView{
		ID:                    session.ID,
		OrganizationID:        session.OrganizationID,
		TeamID:                session.TeamID,
		MeetingType:           session.Kind,
		FacilitatorID:         session.FacilitatorID,
		Status:                string(session.Status()),
		IsActive:              session.IsActive,
		IsPaused:              session.IsPaused,
		StartTime:             session.StartTime,
		LastPauseTime:         session.LastPauseTime,
		LastResumeTime:        session.LastResumeTime,
		TotalPausedSeconds:    session.TotalPausedSeconds,
		ActiveSeconds:         session.ActiveSeconds(now),
		CurrentSectionID:      session.CurrentSectionID,
		CurrentSectionStart:   session.CurrentSectionStart,
		CurrentSectionSeconds: session.CurrentSectionSeconds(now),
		SectionTimings:        make([]dto.SectionTimingView, 0, len(session.SectionTimings)),
		SectionsCompleted:     append([]string{}, session.SectionsCompletedOrder...),
		EndedAt:               session.EndedAt,
		EndReason:             string(session.EndReason),
	}
	for sectionID, timing := range session.SectionTimings {
		view.SectionTimings = append(view.SectionTimings, dto.SectionTimingView{
			SectionID:        sectionID,
			AllocatedSeconds: timing.AllocatedSeconds,
			StartedAt:        timing.StartedAt,
			EndedAt:          timing.EndedAt,
			PausedSeconds:    timing.PausedSeconds,
			ActualSeconds:    timing.ActualSeconds,
			OverrunSeconds:   timing.OverrunSeconds,
			InProgress:       timing.InProgress(),
		})
	}
	sort.Slice(view.SectionTimings, func(i, j int) bool {
		if view.SectionTimings[i].StartedAt.Equal(view.SectionTimings[j].StartedAt) {
			return view.SectionTimings[i].SectionID < view.SectionTimings[j].SectionID
		}
		return view.SectionTimings[i].StartedAt.Before(view.SectionTimings[j].StartedAt)
	})
	return view
}

// Status renders the session against its agenda with pace and pause history.
// events may be in any order; history is returned newest first.
func (s *SessionService) Status(session domain.Session, catalog domain.Catalog, events []domain.PauseEvent, now time.Time) dto.StatusOutput {
	report := session.MeetingPace(catalog, now, s.policy)
	out := dto.StatusOutput{
		Session:               s.View(session, now),
		Sections:              make([]dto.SectionView, 0, len(catalog)),
		Pace:                  string(report.Pace),
		DeviationPct:          report.DeviationPct,
		TotalAllocatedSeconds: report.AllocatedSeconds,
		TotalActualSeconds:    report.ActualSeconds,
		PauseCount:            len(events),
		PauseHistory:          make([]dto.PauseEventView, 0, len(events)),
	}
	for _, section := range catalog {
		item := dto.SectionView{
			ID:               section.ID,
			Name:             section.Name,
			AllocatedSeconds: section.AllocatedSeconds(),
			Status:           SectionPending,
		}
		if timing, ok := session.SectionTimings[section.ID]; ok {
			item.AllocatedSeconds = timing.AllocatedSeconds
			item.Status = SectionCompleted
			if timing.InProgress() {
				item.Status = SectionInProgress
			}
			item.ElapsedSeconds, _ = session.SectionSeconds(section.ID, now)
		}
		out.Sections = append(out.Sections, item)
	}
	sorted := append([]domain.PauseEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PausedAt.After(sorted[j].PausedAt) })
	for _, event := range sorted {
		out.PauseHistory = append(out.PauseHistory, dto.PauseEventView{
			ID:              event.ID,
			PausedAt:        event.PausedAt,
			ResumedAt:       event.ResumedAt,
			PausedBy:        event.PausedBy,
			ResumedBy:       event.ResumedBy,
			Reason:          event.Reason,
			DurationSeconds: event.DurationSeconds,
		})
	}
	return out
}

// Conclusion converts the end payload into the domain form.
func Conclusion(input dto.ConclusionInput) domain.Conclusion {
	out := domain.Conclusion{
		DurationSeconds: input.DurationSeconds,
		Notes:           input.Notes,
		Summary:         input.Summary,
	}
	for _, r := range input.Ratings {
		out.Ratings = append(out.Ratings, domain.Rating{ParticipantID: r.ParticipantID, Name: r.Name, Value: r.Value})
	}
	for _, t := range input.Todos {
		out.Todos = append(out.Todos, domain.Todo{
			ID:           t.ID,
			Title:        t.Title,
			AssigneeID:   t.AssigneeID,
			AssigneeName: t.AssigneeName,
			DueDate:      t.DueDate,
			CreatedAt:    t.CreatedAt,
			CompletedAt:  t.CompletedAt,
		})
	}
	for _, i := range input.Issues {
		out.Issues = append(out.Issues, domain.Issue{ID: i.ID, Title: i.Title, CreatedAt: i.CreatedAt, SolvedAt: i.SolvedAt, Solution: i.Solution})
	}
	for _, h := range input.Headlines {
		out.Headlines = append(out.Headlines, domain.Headline{ID: h.ID, Text: h.Text, Author: h.Author})
	}
	return out
}
