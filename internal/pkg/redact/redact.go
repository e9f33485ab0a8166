// redact предоставляет утилиты безопасного редактирования чувствительных
// данных для логов (логины, e-mail, токены). Цель — исключить утечки секретов,
// сохранив полезный для отладки контекст.
package redact

import "strings"

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать РОВНО один символ '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если длина локальной части ≤ 2 символов — возвращается "***@<domain>".
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	return Username(s[:i]) + "@" + s[i+1:]
}

// Username маскирует логин: первые два символа (по рунам) + "***".
// Короткие логины скрываются полностью.
func Username(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

// Token скрывает токен, оставляя последние 4 символа для сопоставления
// записей в логах. Короткие и пустые токены скрываются полностью.
func Token(tok string) string {
	if len(tok) < 16 {
		return "[REDACTED_TOKEN]"
	}

	return "[REDACTED_TOKEN]…" + tok[len(tok)-4:]
}

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }
