// Package engine содержит чистую логику workflow без ввода-вывода.
//
// Включает:
//   - parser.go    — разбор и валидация workflow (JSON, YAML)
//   - graph.go     — индекс рёбер, стартовые узлы, анализ циклов
//   - template.go  — подстановка {{nodeId.path}} по результатам узлов
//   - condition.go — вычисление условий рёбер
//   - coerce.go    — приведение значений (числа, строки, нестрогое равенство)
//   - snapshot.go  — глубокая копия результатов без ключей "context"
//   - chart.go     — Mermaid диаграмма workflow
//
// Engine не выполняет инструменты и не хранит состояние run:
// этим занимается пакет orchestrator.
package engine
