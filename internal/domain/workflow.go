package domain

// CategoryTrigger — зарезервированная категория узлов-точек входа.
const CategoryTrigger = "trigger"

// Workflow — декларативный граф узлов и рёбер.
//
// Workflow загружается один раз (из JSON или YAML файла) и не изменяется
// во время выполнения. Все шаблонные поля (parameters.*, if, maxIterations)
// остаются строками и вычисляются только в момент выполнения.
type Workflow struct {
	// ID — идентификатор workflow (используется в имени файла summary).
	ID string `json:"id" yaml:"id"`

	// Name — человекочитаемое имя.
	Name string `json:"name" yaml:"name"`

	// Nodes — узлы в порядке объявления.
	// Порядок важен: при отсутствии trigger-узлов выполнение начинается с Nodes[0].
	Nodes []Node `json:"nodes" yaml:"nodes"`

	// Edges — рёбра в порядке объявления.
	// Исходящие рёбра узла обходятся именно в этом порядке.
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node — типизированная единица работы.
type Node struct {
	// ID — уникальный в пределах workflow идентификатор.
	ID string `json:"id" yaml:"id"`

	// Type — тип инструмента (ключ в реестре tools).
	Type string `json:"type" yaml:"type"`

	// Category — тег узла. "trigger" помечает точку входа.
	Category string `json:"category" yaml:"category"`

	// Text — подпись узла для execution path и диаграмм (опционально).
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Parameters — параметры инструмента, значения могут содержать {{nodeId.path}}.
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

// Label возвращает подпись узла: Text, либо Type если Text пустой.
func (n *Node) Label() string {
	if n.Text != "" {
		return n.Text
	}
	return n.Type
}

// IsTrigger возвращает true для узлов категории trigger.
func (n *Node) IsTrigger() bool {
	return n.Category == CategoryTrigger
}

// Edge — направленная, опционально условная связь между узлами.
type Edge struct {
	ID          string `json:"id" yaml:"id"`
	StartNodeID string `json:"startNodeId" yaml:"startNodeId"`
	EndNodeID   string `json:"endNodeId" yaml:"endNodeId"`

	// Condition — имя оператора сравнения (equals, greater_than, between, ...).
	// Пустое значение означает безусловное ребро.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// If — шаблон, значение которого является фактическим операндом.
	If string `json:"if,omitempty" yaml:"if,omitempty"`

	// Value — ожидаемый операнд (литерал). nil, если поле не задано:
	// такой операнд не совпадает ни с чем, кроме null.
	Value *string `json:"value,omitempty" yaml:"value,omitempty"`

	// MaxIterations — шаблон, вычисляемый в целое число при каждой проверке ребра.
	// Пустое или нечисловое значение — без ограничения.
	MaxIterations string `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
}

// HasCondition возвращает true, если ребро условное.
func (e *Edge) HasCondition() bool {
	return e.Condition != ""
}

// ConditionText возвращает описание условия для журнала edgesTaken.
func (e *Edge) ConditionText() string {
	if !e.HasCondition() {
		return "none"
	}
	value, _ := e.ExpectedValue()
	return e.If + " " + e.Condition + " " + value
}

// ExpectedValue возвращает ожидаемый операнд и признак его наличия.
func (e *Edge) ExpectedValue() (string, bool) {
	if e.Value == nil {
		return "", false
	}
	return *e.Value, true
}

// NodeByID возвращает узел по ID или nil.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}

// OutgoingEdges возвращает исходящие рёбра узла в порядке объявления.
func (w *Workflow) OutgoingEdges(nodeID string) []Edge {
	var edges []Edge
	for _, e := range w.Edges {
		if e.StartNodeID == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// StartNodes возвращает узлы, с которых начинается выполнение:
// все trigger-узлы, либо первый объявленный узел, если trigger-узлов нет.
func (w *Workflow) StartNodes() []*Node {
	var starts []*Node
	for i := range w.Nodes {
		if w.Nodes[i].IsTrigger() {
			starts = append(starts, &w.Nodes[i])
		}
	}
	if len(starts) == 0 && len(w.Nodes) > 0 {
		starts = append(starts, &w.Nodes[0])
	}
	return starts
}

// WorkflowInfo — краткое описание workflow-файла для списков.
type WorkflowInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}
