// Package cli реализует команды matq.
//
// # Команды
//
//   - producer — публикует TaskCount задач (или бесконечно с -i) в очередь tasks
//   - consumer — обрабатывает задачи до простоя IdleThreshold×ConsumeTimeout или сигнала
//   - local    — producer и consumer в одном процессе на in-memory брокере
//
// Значения по умолчанию берутся из окружения (см. internal/config),
// флаги применяются поверх.
//
// # Завершение
//
// SIGINT и SIGTERM отменяют контекст: текущая операция доводится
// до конца, процесс выходит со статусом 0. Остановка consumer'а по
// простою — тоже статус 0. Фатальные ошибки брокера (аутентификация,
// канал, объявление очередей, разрыв во время работы) возвращаются
// из команды, main печатает их и выходит со статусом 1.
//
// # Output
//
// Итог работы (Summary) печатается в stdout таблицей или JSON (--json),
// строки лога идут через slog.
package cli
