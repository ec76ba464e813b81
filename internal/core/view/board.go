package view

import (
	"sync"

	"github.com/ogurasousui/taskvault/internal/core/access"
	"github.com/ogurasousui/taskvault/internal/core/employee"
	"github.com/ogurasousui/taskvault/internal/core/penalty"
	"github.com/ogurasousui/taskvault/internal/core/role"
	"github.com/ogurasousui/taskvault/internal/core/task"
)

// Source はボードへスナップショットを届ける購読の種類です。
type Source string

const (
	SourceEmployees Source = "employees"
	SourceTasks     Source = "tasks"
	SourceDayTasks  Source = "day_tasks"
	SourcePenalties Source = "penalties"
)

// Snapshot はある時点の派生ビュー一式です。ロールで参照できないビューは空のままです。
type Snapshot struct {
	Role role.Role
	// Pending は開いた購読のいずれかがまだ初回通知を行っていないことを表します。
	Pending bool
	// NoProfile は EMPLOYEE の呼び出し元に紐づく社員が見つからないことを表します。
	NoProfile     bool
	RosterActive  []RosterEntry
	RosterHistory []HistoryEntry
	Digest        *PenaltyDigest
	DayTasks      []*task.Task
}

// BoardConfig はボードの構成です。
type BoardConfig struct {
	Sources []Source
	// EmployeeID は集計ビューと当日タスクの対象社員です。空なら当日タスクは全員分です。
	EmployeeID string
	NoProfile  bool
}

// Board は各購読の最新スナップショットを保持し、いずれかが更新されるたびに
// 派生ビューを同期的に再計算して publish へ渡します。
type Board struct {
	mu      sync.Mutex
	session access.Session
	cfg     BoardConfig
	publish func(Snapshot)

	expected map[Source]bool
	seen     map[Source]bool

	employees []*employee.Employee
	tasks     []*task.Task
	dayTasks  []*task.Task
	penalties []*penalty.Penalty

	last Snapshot
}

// NewBoard は Board を生成します。publish は nil でも構いません。
func NewBoard(session access.Session, cfg BoardConfig, publish func(Snapshot)) *Board {
	b := &Board{
		session:  session,
		cfg:      cfg,
		publish:  publish,
		expected: make(map[Source]bool, len(cfg.Sources)),
		seen:     make(map[Source]bool, len(cfg.Sources)),
	}
	for _, s := range cfg.Sources {
		b.expected[s] = true
	}
	b.last = b.compute()
	return b
}

// SetEmployees は社員購読の通知を反映します。
func (b *Board) SetEmployees(items []*employee.Employee) {
	b.update(SourceEmployees, func() { b.employees = items })
}

// SetTasks は全タスク購読の通知を反映します。
func (b *Board) SetTasks(items []*task.Task) {
	b.update(SourceTasks, func() { b.tasks = items })
}

// SetDayTasks は日付で絞り込んだタスク購読の通知を反映します。
func (b *Board) SetDayTasks(items []*task.Task) {
	b.update(SourceDayTasks, func() { b.dayTasks = items })
}

// SetPenalties は懲戒購読の通知を反映します。
func (b *Board) SetPenalties(items []*penalty.Penalty) {
	b.update(SourcePenalties, func() { b.penalties = items })
}

// Snapshot は最後に計算したビューを返します。
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Board) update(source Source, apply func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	apply()
	b.seen[source] = true
	b.last = b.compute()

	if b.publish != nil {
		b.publish(b.last)
	}
}

func (b *Board) compute() Snapshot {
	snap := Snapshot{
		Role:      b.session.EffectiveRole(),
		NoProfile: b.cfg.NoProfile,
	}
	for s := range b.expected {
		if !b.seen[s] {
			snap.Pending = true
			break
		}
	}

	if b.session.CanView(access.ViewRosterActive) && b.expected[SourceEmployees] && b.expected[SourceTasks] {
		snap.RosterActive = RosterWithActiveTask(b.employees, b.tasks)
	}

	if b.session.CanView(access.ViewRosterHistory) && b.expected[SourceEmployees] {
		historyTasks := b.tasks
		if b.expected[SourceDayTasks] {
			historyTasks = b.dayTasks
		}
		snap.RosterHistory = RosterWithHistory(b.employees, historyTasks, b.penalties)
	}

	if b.cfg.EmployeeID != "" && b.expected[SourcePenalties] && b.canViewDigest() {
		d := Digest(b.cfg.EmployeeID, b.penalties)
		snap.Digest = &d
	}

	if b.session.CanView(access.ViewDayTasks) && b.expected[SourceDayTasks] && !b.cfg.NoProfile {
		snap.DayTasks = TasksForEmployee(b.cfg.EmployeeID, b.dayTasks)
	}

	return snap
}

func (b *Board) canViewDigest() bool {
	if b.session.CanView(access.ViewPenaltyDigest) {
		return true
	}
	return b.session.CanView(access.ViewOwnPenalties) && !b.cfg.NoProfile
}
