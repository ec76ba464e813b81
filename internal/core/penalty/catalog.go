package penalty

// CatalogEntry は懲戒作成用の固定テンプレートです。永続化されません。
type CatalogEntry struct {
	ID       string
	Label    string
	Severity Severity
}

var catalog = []CatalogEntry{
	{ID: "late_small", Label: "Опоздание до 15 минут", Severity: SeverityMinor},
	{ID: "untidy_look", Label: "Неопрятный внешний вид", Severity: SeverityMinor},

	{ID: "late_big", Label: "Опоздание более 15 минут", Severity: SeverityMedium},
	{ID: "bad_behavior", Label: "Некорректное поведение", Severity: SeverityMedium},
	{ID: "disobedience", Label: "Невыполнение прямых указаний", Severity: SeverityMedium},

	{ID: "safety_violation", Label: "Нарушение техники безопасности", Severity: SeveritySevere},
	{ID: "alcohol", Label: "Появление в нетрезвом виде", Severity: SeveritySevere},
}

// Catalog はテンプレートの一覧を定義順で返します。
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogByID は ID に一致するテンプレートを返します。
func CatalogByID(id string) (CatalogEntry, bool) {
	for _, entry := range catalog {
		if entry.ID == id {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}
