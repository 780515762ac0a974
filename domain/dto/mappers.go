package dto

import (
	"github.com/google/uuid"

	"faceclock/domain/models"
)

func PersonToResponse(person *models.Person) *PersonResponse {
	if person == nil {
		return nil
	}

	return &PersonResponse{
		ID:              person.ID,
		Name:            person.Name,
		Email:           person.Email,
		Role:            person.Role,
		IsActive:        person.IsActive,
		DescriptorCount: len(person.Descriptors),
		LastSeenAt:      person.LastSeenAt,
		CreatedAt:       person.CreatedAt,
	}
}

func PersonsToListResponse(persons []models.Person, total int64, page, limit int) *PersonListResponse {
	out := make([]PersonResponse, 0, len(persons))
	for i := range persons {
		out = append(out, *PersonToResponse(&persons[i]))
	}
	return &PersonListResponse{
		Persons: out,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
}

func EventToResponse(event *models.AttendanceEvent) *AttendanceEventResponse {
	if event == nil {
		return nil
	}

	resp := &AttendanceEventResponse{
		ID:         event.ID,
		PersonID:   event.PersonID,
		Type:       string(event.Type),
		Timestamp:  event.Timestamp,
		Confidence: event.Confidence,
		ImageKey:   event.ImageKey,
		Latitude:   event.Latitude,
		Longitude:  event.Longitude,
		Corrected:  event.Corrected,
	}
	if event.Person.Name != "" {
		resp.PersonName = event.Person.Name
	}
	return resp
}

func EventsToListResponse(events []models.AttendanceEvent, total int64, page, limit int) *AttendanceListResponse {
	out := make([]AttendanceEventResponse, 0, len(events))
	for i := range events {
		out = append(out, *EventToResponse(&events[i]))
	}
	return &AttendanceListResponse{
		Events: out,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
}

func SessionToResponse(session *models.Session, currentSessionID uuid.UUID) *SessionResponse {
	if session == nil {
		return nil
	}

	return &SessionResponse{
		SessionID: session.SessionID,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
		Current:   session.SessionID == currentSessionID,
	}
}

func AuditLogToResponse(log *models.AuditLog) *AuditLogResponse {
	if log == nil {
		return nil
	}

	return &AuditLogResponse{
		ID:        log.ID,
		ActorID:   log.ActorID,
		PersonID:  log.PersonID,
		Action:    string(log.Action),
		Details:   log.Details,
		CreatedAt: log.CreatedAt,
	}
}
