package penalty

import "time"

// Collection は変更シグナルで使うコレクション名です。
const Collection = "penalties"

// Severity は違反の重大度カテゴリです。
type Severity string

const (
	SeverityMinor   Severity = "MINOR"
	SeverityMedium  Severity = "MEDIUM"
	SeveritySevere  Severity = "SEVERE"
	SeverityUnknown Severity = "UNKNOWN"
)

// 保存時の type フィールドに書き込まれるラベルです。
const (
	LabelMinor  = "Мелкое"
	LabelMedium = "Среднее"
	LabelSevere = "Серьезное"
)

// Label はカテゴリに対応する保存用ラベルを返します。UNKNOWN は空文字列です。
func (s Severity) Label() string {
	switch s {
	case SeverityMinor:
		return LabelMinor
	case SeverityMedium:
		return LabelMedium
	case SeveritySevere:
		return LabelSevere
	default:
		return ""
	}
}

// SeverityOf は保存されたラベルをカテゴリへ分類します。未知のラベルは UNKNOWN です。
func SeverityOf(label string) Severity {
	switch label {
	case LabelMinor:
		return SeverityMinor
	case LabelMedium:
		return SeverityMedium
	case LabelSevere:
		return SeveritySevere
	default:
		return SeverityUnknown
	}
}

// Penalty は社員に記録された懲戒です。削除以外の変更はできません。
type Penalty struct {
	ID    string
	Title string
	// Type は保存されたラベルそのものです。分類は Severity を使います。
	Type       string
	Comment    string
	CreatedAt  time.Time
	EmployeeID string
}

// Severity は懲戒の重大度カテゴリを返します。
func (p *Penalty) Severity() Severity {
	return SeverityOf(p.Type)
}
