// Package view は複数のライブ購読から派生ビューを組み立てます。
// 関数はすべて純粋で、入力スライスを変更しません。
package view

import (
	"sort"

	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

// RosterEntry は社員と現在の未完了タスクの組です。ActiveTask が nil なら該当なしです。
type RosterEntry struct {
	Employee   *employee.Employee
	ActiveTask *task.Task
}

// HistoryEntry は社員に紐づくタスクと懲戒の一覧です。いずれも作成順に並びます。
type HistoryEntry struct {
	Employee  *employee.Employee
	Tasks     []*task.Task
	Penalties []*penalty.Penalty
}

// PenaltyDigest は 1 名分の懲戒の集計です。Penalties は新しい順に並びます。
type PenaltyDigest struct {
	EmployeeID string
	Minor      int
	Medium     int
	Severe     int
	Unknown    int
	Total      int
	Penalties  []*penalty.Penalty
}

// RosterWithActiveTask は社員ごとに最も古い未完了タスクを選びます。
// 作成日時が同じ場合はストア順で先のものを選びます。
func RosterWithActiveTask(employees []*employee.Employee, tasks []*task.Task) []RosterEntry {
	byEmployee := indexTasks(tasks)

	out := make([]RosterEntry, 0, len(employees))
	for _, emp := range employees {
		if emp == nil {
			continue
		}
		var active *task.Task
		for _, t := range byEmployee[emp.ID] {
			if t.Completed {
				continue
			}
			if active == nil || t.CreatedAt.Before(active.CreatedAt) {
				active = t
			}
		}
		out = append(out, RosterEntry{Employee: emp, ActiveTask: active})
	}
	return out
}

// RosterWithHistory は社員ごとにタスクと懲戒を作成順で並べます。
func RosterWithHistory(employees []*employee.Employee, tasks []*task.Task, penalties []*penalty.Penalty) []HistoryEntry {
	tasksByEmployee := indexTasks(tasks)
	penaltiesByEmployee := indexPenalties(penalties)

	out := make([]HistoryEntry, 0, len(employees))
	for _, emp := range employees {
		if emp == nil {
			continue
		}
		empTasks := append([]*task.Task(nil), tasksByEmployee[emp.ID]...)
		sort.SliceStable(empTasks, func(i, j int) bool {
			return empTasks[i].CreatedAt.Before(empTasks[j].CreatedAt)
		})

		empPenalties := append([]*penalty.Penalty(nil), penaltiesByEmployee[emp.ID]...)
		sort.SliceStable(empPenalties, func(i, j int) bool {
			return empPenalties[i].CreatedAt.Before(empPenalties[j].CreatedAt)
		})

		out = append(out, HistoryEntry{Employee: emp, Tasks: empTasks, Penalties: empPenalties})
	}
	return out
}

// Digest は employeeID の懲戒を重大度ごとに集計します。
// 未知のラベルは Unknown に数え、一覧には含めます。
func Digest(employeeID string, penalties []*penalty.Penalty) PenaltyDigest {
	d := PenaltyDigest{EmployeeID: employeeID}

	for _, p := range penalties {
		if p == nil || p.EmployeeID != employeeID {
			continue
		}
		switch p.Severity() {
		case penalty.SeverityMinor:
			d.Minor++
		case penalty.SeverityMedium:
			d.Medium++
		case penalty.SeveritySevere:
			d.Severe++
		default:
			d.Unknown++
		}
		d.Penalties = append(d.Penalties, p)
	}

	d.Total = len(d.Penalties)
	sort.SliceStable(d.Penalties, func(i, j int) bool {
		return d.Penalties[i].CreatedAt.After(d.Penalties[j].CreatedAt)
	})
	return d
}

// TasksForEmployee は employeeID のタスクを作成順で返します。空文字列なら全件です。
func TasksForEmployee(employeeID string, tasks []*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil || (employeeID != "" && t.EmployeeID != employeeID) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func indexTasks(tasks []*task.Task) map[string][]*task.Task {
	idx := make(map[string][]*task.Task)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		idx[t.EmployeeID] = append(idx[t.EmployeeID], t)
	}
	return idx
}

func indexPenalties(penalties []*penalty.Penalty) map[string][]*penalty.Penalty {
	idx := make(map[string][]*penalty.Penalty)
	for _, p := range penalties {
		if p == nil {
			continue
		}
		idx[p.EmployeeID] = append(idx[p.EmployeeID], p)
	}
	return idx
}
