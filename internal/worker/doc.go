// Package worker выполняет workflow, запрошенные через очередь.
//
// # Обзор
//
// Worker — stateless компонент, который потребляет сообщения run.requested
// из очереди runs.requested и выполняет workflow-файлы через
// orchestrator.Runner. Summary сохраняется во все настроенные sinks,
// событие run.completed публикует mq.EventSink.
//
// Workers масштабируются горизонтально: несколько экземпляров
// потребляют из одной очереди.
//
//	w := worker.New(worker.Config{
//	    Runner:  runner,
//	    Conn:    mqConn,
//	    History: summaryRepo, // опционально
//	    Logger:  logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - Успешный run, включая run с ошибками узлов — ack
//   - Run прерван по таймауту RunTimeout — ack (повтор продублирует побочные эффекты)
//   - Некорректный payload, неизвестный или невалидный workflow — reject (DLQ)
//   - Остановка worker во время run — requeue
//   - Run с этим ID уже есть в истории — ack без выполнения
package worker
