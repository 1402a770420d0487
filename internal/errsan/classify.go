package errsan

import "strings"

type Category string

const (
	CategoryDatabase   Category = "database"
	CategoryNetwork    Category = "network"
	CategoryValidation Category = "validation"
	CategoryAuth       Category = "auth"
	CategoryNotFound   Category = "notfound"
	CategoryRateLimit  Category = "ratelimit"
	CategoryDefault    Category = "default"
)

type family struct {
	category Category
	keywords []string
}

// первое совпадение выигрывает
var families = []family{
	{CategoryDatabase, []string{"database", "d1", "sql"}},
	{CategoryNetwork, []string{"network", "fetch", "timeout"}},
	{CategoryValidation, []string{"valid", "required", "format"}},
	{CategoryAuth, []string{"auth", "unauthorized", "forbidden"}},
	{CategoryNotFound, []string{"not found", "404"}},
	{CategoryRateLimit, []string{"rate", "limit", "429"}},
}

// Classify относит ошибку к семейству по ключевым словам в тексте.
func Classify(err error) Category {
	if err == nil {
		return CategoryDefault
	}
	return ClassifyMessage(err.Error())
}

func ClassifyMessage(msg string) Category {
	lower := strings.ToLower(msg)
	for _, f := range families {
		for _, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				return f.category
			}
		}
	}
	return CategoryDefault
}

var userMessages = map[Category]string{
	CategoryDatabase:   "A temporary storage problem occurred. Please try again later.",
	CategoryNetwork:    "A network problem occurred. Please check your connection and try again.",
	CategoryValidation: "The request contains invalid data. Please check your input.",
	CategoryAuth:       "You are not allowed to perform this action.",
	CategoryNotFound:   "The requested resource was not found.",
	CategoryRateLimit:  "Too many requests. Please wait a moment and try again.",
	CategoryDefault:    "An unexpected error occurred. Please try again later.",
}

var codes = map[Category]string{
	CategoryDatabase:   "DATABASE_ERROR",
	CategoryNetwork:    "NETWORK_ERROR",
	CategoryValidation: "VALIDATION_ERROR",
	CategoryAuth:       "AUTH_ERROR",
	CategoryNotFound:   "NOT_FOUND",
	CategoryRateLimit:  "RATE_LIMITED",
	CategoryDefault:    "INTERNAL_ERROR",
}

// UserMessage — фиксированный текст для клиента.
func (c Category) UserMessage() string {
	if m, ok := userMessages[c]; ok {
		return m
	}
	return userMessages[CategoryDefault]
}

// Code — машинно-читаемый код категории.
func (c Category) Code() string {
	if code, ok := codes[c]; ok {
		return code
	}
	return codes[CategoryDefault]
}

// UserMessages — все допустимые клиентские тексты (для проверок).
func UserMessages() []string {
	out := make([]string, 0, len(userMessages))
	for _, m := range userMessages {
		out = append(out, m)
	}
	return out
}
