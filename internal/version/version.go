package version

import "fmt"

// Заполняются через -ldflags при сборке релиза.
var (
	version = "dev"
	commit  = "unknown"
	builtAt = "unknown"
)

// Version возвращает семантическую версию сборки.
func Version() string { return version }

// String возвращает полную строку сборки для логов и health-ответов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s built_at=%s", version, commit, builtAt)
}
