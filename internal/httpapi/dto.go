package httpapi

import (
	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/interval"
)

type sessionDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	TaskID      string `json:"taskId"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Duration    *int   `json:"duration"`
	Description string `json:"description"`
}

func toSessionDTO(s *domain.Session) sessionDTO {
	return sessionDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		TaskID:      s.TaskID,
		StartTime:   interval.FormatInstant(s.StartTime),
		EndTime:     interval.FormatInstant(s.EndTime),
		Duration:    s.Duration,
		Description: s.Description,
	}
}

func toSessionDTOs(sessions []*domain.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}

type createSessionRequest struct {
	TaskID      string `json:"taskId"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Duration    *int   `json:"duration"`
	Description string `json:"description"`
}

type updateSessionRequest struct {
	Description *string `json:"description"`
	Duration    *int    `json:"duration"`
	EndTime     *string `json:"endTime"`
}

type upsertSessionRequest struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"taskId"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Duration    *int    `json:"duration"`
	Description *string `json:"description"`
}

type updateMultipleRequest struct {
	Sessions []upsertSessionRequest `json:"sessions"`
}

type updateMultipleResponse struct {
	Count    int          `json:"count"`
	Sessions []sessionDTO `json:"sessions"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type taskDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	Subdomain string `json:"subdomain"`
}

func toTaskDTO(t *domain.Task) taskDTO {
	return taskDTO{ID: t.ID, Name: t.Name, Domain: t.Domain, Subdomain: t.Subdomain}
}

type createTaskRequest struct {
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	Subdomain string `json:"subdomain"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Index   *int              `json:"index,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
