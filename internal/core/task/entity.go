package task

import "time"

// Collection は変更シグナルで使うコレクション名です。
const Collection = "tasks"

// Task は社員に割り当てられたタスクです。
type Task struct {
	ID         string
	Title      string
	Completed  bool
	CreatedAt  time.Time
	EmployeeID string
}
