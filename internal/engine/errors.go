package engine

import "errors"

// Ошибки валидации workflow.
var (
	// ErrEmptyWorkflow — документ отсутствует.
	ErrEmptyWorkflow = errors.New("workflow is empty")

	// ErrInvalidDocument — документ не является объектом или не разбирается.
	ErrInvalidDocument = errors.New("invalid workflow document")

	// ErrMissingField — отсутствует обязательное поле.
	ErrMissingField = errors.New("required field is missing")

	// ErrInvalidFieldType — поле имеет неверный тип.
	ErrInvalidFieldType = errors.New("field has invalid type")

	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrEmptyEdgeID — ребро не имеет ID.
	ErrEmptyEdgeID = errors.New("edge has empty ID")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID — несколько рёбер с одинаковым ID.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownNode — ребро ссылается на несуществующий узел.
	ErrUnknownNode = errors.New("edge references unknown node")

	// ErrUnsupportedFormat — неизвестное расширение файла workflow.
	ErrUnsupportedFormat = errors.New("unsupported workflow format")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	EdgeID  string // ID ребра, где произошла ошибка
	Field   string // путь к полю: nodes[1].parameters
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	switch {
	case e.NodeID != "":
		return "node " + e.NodeID + ": " + e.Message
	case e.EdgeID != "":
		return "edge " + e.EdgeID + ": " + e.Message
	case e.Field != "":
		return e.Field + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт ошибку валидации без привязки к узлу или ребру.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

func nodeError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{NodeID: nodeID, Field: field, Message: message, Err: err}
}

func edgeError(edgeID, field, message string, err error) *ValidationError {
	return &ValidationError{EdgeID: edgeID, Field: field, Message: message, Err: err}
}
