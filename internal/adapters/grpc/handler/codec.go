package handler

import (
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/task"
	"github.com/ogurasousui/taskvault/internal/core/view"
)

// fields は structpb.Struct のリクエストを読み取ります。
type fields map[string]*structpb.Value

func requestFields(req *structpb.Struct) fields {
	if req == nil {
		return fields{}
	}
	return fields(req.GetFields())
}

func (f fields) has(name string) bool {
	v, ok := f[name]
	if !ok || v == nil {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

func (f fields) str(name string) (string, error) {
	if !f.has(name) {
		return "", nil
	}
	switch k := f[name].GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		if k.NumberValue == math.Trunc(k.NumberValue) && !math.IsInf(k.NumberValue, 0) {
			return fmt.Sprintf("%.0f", k.NumberValue), nil
		}
	}
	return "", fmt.Errorf("%s must be a string", name)
}

func (f fields) optStr(name string) (*string, error) {
	if !f.has(name) {
		return nil, nil
	}
	s, err := f.str(name)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (f fields) optNumber(name string) (*float64, error) {
	if !f.has(name) {
		return nil, nil
	}
	k, ok := f[name].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	v := k.NumberValue
	return &v, nil
}

func (f fields) optBool(name string) (*bool, error) {
	if !f.has(name) {
		return nil, nil
	}
	k, ok := f[name].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	v := k.BoolValue
	return &v, nil
}

func (f fields) boolean(name string) (bool, error) {
	v, err := f.optBool(name)
	if err != nil || v == nil {
		return false, err
	}
	return *v, nil
}

// date は "2006-01-02" 形式の日付を loc の暦で解釈します。未指定ならゼロ値です。
func (f fields) date(name string, loc *time.Location) (time.Time, error) {
	raw, err := f.str(name)
	if err != nil || strings.TrimSpace(raw) == "" {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %v", name, err)
	}
	return d, nil
}

const dateLayout = "2006-01-02"

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeEmployee(e *employee.Employee) map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{
		"id":          e.ID,
		"fullName":    e.FullName,
		"position":    e.Position,
		"basePremium": e.BasePremium,
		"isActive":    e.IsActive,
		"task":        e.Task,
		"telegramId":  e.TelegramID,
	}
}

func encodeTask(t *task.Task) any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"id":         t.ID,
		"title":      t.Title,
		"completed":  t.Completed,
		"createdAt":  formatTime(t.CreatedAt),
		"employeeId": t.EmployeeID,
	}
}

func encodePenalty(p *penalty.Penalty) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"title":      p.Title,
		"type":       p.Type,
		"severity":   string(p.Severity()),
		"comment":    p.Comment,
		"createdAt":  formatTime(p.CreatedAt),
		"employeeId": p.EmployeeID,
	}
}

func encodeTasks(tasks []*task.Task) []any {
	out := make([]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, encodeTask(t))
	}
	return out
}

func encodePenalties(penalties []*penalty.Penalty) []any {
	out := make([]any, 0, len(penalties))
	for _, p := range penalties {
		out = append(out, encodePenalty(p))
	}
	return out
}

func encodeSession(s access.Session) map[string]any {
	return map[string]any{
		"sessionId":     s.ID,
		"callerId":      s.CallerID,
		"groupId":       s.GroupID,
		"role":          string(s.Role),
		"override":      string(s.Override),
		"effectiveRole": string(s.EffectiveRole()),
	}
}

func encodeSnapshot(s view.Snapshot) map[string]any {
	out := map[string]any{
		"role":      string(s.Role),
		"pending":   s.Pending,
		"noProfile": s.NoProfile,
	}

	if s.RosterActive != nil {
		roster := make([]any, 0, len(s.RosterActive))
		for _, entry := range s.RosterActive {
			roster = append(roster, map[string]any{
				"employee":   encodeEmployee(entry.Employee),
				"activeTask": encodeTask(entry.ActiveTask),
			})
		}
		out["rosterActive"] = roster
	}

	if s.RosterHistory != nil {
		history := make([]any, 0, len(s.RosterHistory))
		for _, entry := range s.RosterHistory {
			history = append(history, map[string]any{
				"employee":  encodeEmployee(entry.Employee),
				"tasks":     encodeTasks(entry.Tasks),
				"penalties": encodePenalties(entry.Penalties),
			})
		}
		out["rosterHistory"] = history
	}

	if s.Digest != nil {
		out["digest"] = map[string]any{
			"employeeId": s.Digest.EmployeeID,
			"minor":      s.Digest.Minor,
			"medium":     s.Digest.Medium,
			"severe":     s.Digest.Severe,
			"unknown":    s.Digest.Unknown,
			"total":      s.Digest.Total,
			"penalties":  encodePenalties(s.Digest.Penalties),
		}
	}

	if s.DayTasks != nil {
		out["dayTasks"] = encodeTasks(s.DayTasks)
	}

	return out
}

func encodeCatalog(entries []penalty.CatalogEntry) map[string]any {
	list := make([]any, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]any{
			"id":       e.ID,
			"label":    e.Label,
			"severity": string(e.Severity),
			"type":     e.Severity.Label(),
		})
	}
	return map[string]any{"entries": list}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}
