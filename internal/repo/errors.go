package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись или файл не найдены.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFilename — имя workflow-файла выходит за пределы каталога
	// или имеет неподдерживаемое расширение.
	ErrInvalidFilename = errors.New("invalid workflow filename")
)
