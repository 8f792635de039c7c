// Package orchestrator выполняет workflow.
//
// Orchestrator отвечает за:
//   - Валидацию workflow перед запуском
//   - Выбор стартовых узлов (trigger-узлы или первый узел)
//   - Обход графа в глубину по рёбрам в порядке объявления
//   - Проверку maxIterations и условий рёбер
//   - Выполнение узлов через NodeExecutor (ошибки становятся данными)
//   - Построение и сохранение execution summary
//
// Runner связывает загрузку workflow-файлов, реестр инструментов
// и хранилища summary; его используют API, worker, scheduler и CLI.
package orchestrator
