package employee

// Collection は変更シグナルで使うコレクション名です。
const Collection = "employees"

// DefaultPosition は役職が省略された場合に設定される値です。
const DefaultPosition = "Сотрудник"

// Employee は社員エンティティです。ID はストアが割り当てます。
type Employee struct {
	ID          string
	FullName    string
	Position    string
	BasePremium float64
	IsActive    bool
	// Task は旧画面が書き込んでいた自由記述欄です。
	Task       string
	TelegramID string
}
