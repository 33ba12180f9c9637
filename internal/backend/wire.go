package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grokify/issueconductor/pkg/model"
)

// naiveISO is the timestamp layout of Python's datetime.isoformat() without
// a timezone. Such timestamps are read as UTC.
const naiveISO = "2006-01-02T15:04:05.999999999"

// timestamp decodes the backend's timestamps, which are either RFC 3339 or
// naive ISO-8601. A JSON null or empty string decodes to the zero value.
type timestamp struct {
	time.Time
	Valid bool
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = timestamp{}
		return nil
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*t = timestamp{Time: parsed, Valid: true}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(naiveISO, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp: unrecognized format %q", s)
	}
	return ts, nil
}

func (t timestamp) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

type automationStatusWire struct {
	Status       *string   `json:"status"`
	StartedAt    timestamp `json:"started_at"`
	CompletedAt  timestamp `json:"completed_at"`
	ErrorMessage *string   `json:"error_message"`
	TaskID       *string   `json:"task_id"`
}

func (w automationStatusWire) toModel() model.AutomationStatus {
	s := model.AutomationStatus{
		StartedAt:   w.StartedAt.ptr(),
		CompletedAt: w.CompletedAt.ptr(),
	}
	if w.Status != nil {
		s.Status = model.AutomationState(*w.Status)
	}
	if w.ErrorMessage != nil {
		s.ErrorMessage = *w.ErrorMessage
	}
	if w.TaskID != nil {
		s.TaskID = *w.TaskID
	}
	return s
}

type repositoryWire struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   timestamp `json:"created_at"`
	UpdatedAt   timestamp `json:"updated_at"`
}

func (w repositoryWire) toModel() model.Repository {
	r := model.Repository{
		ID:        w.ID,
		UserID:    w.UserID,
		Name:      w.Name,
		FullName:  w.FullName,
		URL:       w.URL,
		CreatedAt: w.CreatedAt.Time,
		UpdatedAt: w.UpdatedAt.Time,
	}
	if w.Description != nil {
		r.Description = *w.Description
	}
	return r
}

type repositoryInputWire struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
}

func newRepositoryInputWire(in model.RepositoryInput) repositoryInputWire {
	w := repositoryInputWire{
		Name:     in.Name,
		FullName: in.FullName,
		URL:      in.URL,
	}
	if in.Description != "" {
		d := in.Description
		w.Description = &d
	}
	return w
}

type userWire struct {
	Login     string  `json:"login"`
	AvatarURL string  `json:"avatar_url"`
	Name      *string `json:"name"`
}

func (w *userWire) toModel() model.User {
	if w == nil {
		return model.User{}
	}
	u := model.User{Login: w.Login, AvatarURL: w.AvatarURL}
	if w.Name != nil {
		u.Name = *w.Name
	}
	return u
}
