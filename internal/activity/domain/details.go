package domain

import (
	"encoding/json"
	"fmt"
)

// Details is the typed payload of an activity entry. On the wire it is a
// JSON object whose "kind" field names the variant.
type Details interface {
	Kind() string
}

// Change is the before and after value of one field.
type Change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

type ProjectCreated struct {
	Name string `json:"name"`
}

type ProjectUpdated struct {
	Changes map[string]Change `json:"changes"`
}

type TaskCreated struct {
	Title string `json:"title"`
}

type TaskUpdated struct {
	Changes map[string]Change `json:"changes"`
}

type TaskStatusChanged struct {
	OldStatus string            `json:"oldStatus"`
	NewStatus string            `json:"newStatus"`
	Changes   map[string]Change `json:"changes,omitempty"`
}

type TaskDeleted struct {
	Title string `json:"title"`
}

type SubtaskChanged struct {
	Change    string `json:"change"` // added, updated or deleted
	SubtaskID string `json:"subtaskId"`
	Title     string `json:"title,omitempty"`
}

type MemberAdded struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Role       string `json:"role"`
}

type MemberRemoved struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
}

type RoleChanged struct {
	MemberID string `json:"memberId"`
	OldRole  string `json:"oldRole"`
	NewRole  string `json:"newRole"`
}

type CommentAdded struct {
	CommentID string `json:"commentId"`
	Excerpt   string `json:"excerpt"`
}

type AttachmentAdded struct {
	AttachmentID string `json:"attachmentId"`
	FileName     string `json:"fileName"`
}

type AttachmentDeleted struct {
	AttachmentID string `json:"attachmentId"`
	FileName     string `json:"fileName"`
}

type CommentChanged struct {
	Change    string `json:"change"` // updated or deleted
	CommentID string `json:"commentId"`
	Excerpt   string `json:"excerpt,omitempty"`
}

type LabelChanged struct {
	Change  string            `json:"change"` // created, updated or deleted
	LabelID string            `json:"labelId"`
	Name    string            `json:"name"`
	Changes map[string]Change `json:"changes,omitempty"`
}

func (ProjectCreated) Kind() string    { return "project_created" }
func (ProjectUpdated) Kind() string    { return "project_updated" }
func (TaskCreated) Kind() string       { return "task_created" }
func (TaskUpdated) Kind() string       { return "task_updated" }
func (TaskStatusChanged) Kind() string { return "task_status_changed" }
func (TaskDeleted) Kind() string       { return "task_deleted" }
func (SubtaskChanged) Kind() string    { return "subtask_changed" }
func (MemberAdded) Kind() string       { return "member_added" }
func (MemberRemoved) Kind() string     { return "member_removed" }
func (RoleChanged) Kind() string       { return "role_changed" }
func (CommentAdded) Kind() string      { return "comment_added" }
func (AttachmentAdded) Kind() string   { return "attachment_added" }
func (AttachmentDeleted) Kind() string { return "attachment_deleted" }
func (CommentChanged) Kind() string    { return "comment_changed" }
func (LabelChanged) Kind() string      { return "label_changed" }

var detailKinds = map[string]func() Details{
	"project_created":     func() Details { return &ProjectCreated{} },
	"project_updated":     func() Details { return &ProjectUpdated{} },
	"task_created":        func() Details { return &TaskCreated{} },
	"task_updated":        func() Details { return &TaskUpdated{} },
	"task_status_changed": func() Details { return &TaskStatusChanged{} },
	"task_deleted":        func() Details { return &TaskDeleted{} },
	"subtask_changed":     func() Details { return &SubtaskChanged{} },
	"member_added":        func() Details { return &MemberAdded{} },
	"member_removed":      func() Details { return &MemberRemoved{} },
	"role_changed":        func() Details { return &RoleChanged{} },
	"comment_added":       func() Details { return &CommentAdded{} },
	"attachment_added":    func() Details { return &AttachmentAdded{} },
	"attachment_deleted":  func() Details { return &AttachmentDeleted{} },
	"comment_changed":     func() Details { return &CommentChanged{} },
	"label_changed":       func() Details { return &LabelChanged{} },
}

// EncodeDetails serializes d with its kind.
func EncodeDetails(d Details) (string, error) {
	if d == nil {
		return "", nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}
	kind, _ := json.Marshal(d.Kind())
	fields["kind"] = kind
	out, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeDetails parses a payload written by EncodeDetails.
func DecodeDetails(s string) (Details, error) {
	if s == "" {
		return nil, nil
	}
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(s), &head); err != nil {
		return nil, err
	}
	newDetails, ok := detailKinds[head.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown activity details kind %q", head.Kind)
	}
	d := newDetails()
	if err := json.Unmarshal([]byte(s), d); err != nil {
		return nil, err
	}
	return d, nil
}
