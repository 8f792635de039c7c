// Package scheduler запускает workflow-файлы по расписанию.
//
// Структура:
//   - store.go     — загрузка и проверка YAML файла расписаний
//   - cron.go      — cron-выражения и вычисление следующего времени
//   - scheduler.go — Scheduler (Tick, processSchedule, Run)
//   - dispatch.go  — запуск через очередь или в процессе
//
// Использование:
//
//	schedules, err := scheduler.LoadSchedules(cfg.SchedulesFile)
//	sched := scheduler.New(scheduler.Config{
//	    Schedules:  schedules,
//	    Dispatcher: scheduler.NewQueueDispatcher(publisher),
//	    Logger:     logger,
//	})
//	go sched.Run(ctx, time.Second, lock.IsLeader)
//
// Leader Election:
//
// Scheduler не выбирает лидера сам. cmd/graphrun-scheduler передаёт
// в Run функцию, которая берёт pg_try_advisory_lock (repo.AdvisoryLock);
// без базы данных процесс всегда считается лидером.
package scheduler
