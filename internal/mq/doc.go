// Package mq предоставляет доступ к брокеру сообщений.
//
// Структура:
//   - broker.go     — интерфейс Broker, Message, Delivery
//   - retry.go      — политика повторов при установке соединения
//   - connection.go — AMQP-сессия: dial с повторами, канал, graceful close
//   - topology.go   — объявление очередей tasks и results
//   - publisher.go  — публикация с MessageId/CorrelationId
//   - consumer.go   — ConsumeNext с таймаутом и ручной ack
//   - memory.go     — in-memory брокер с той же семантикой (тесты, matq local)
//
// Очереди:
//   - tasks   — задачи от producer'а
//   - results — результаты от consumer'ов
//
// Публикация идёт через default exchange, routing key = имя очереди.
//
// Классы ошибок:
//   - ErrConnect — транспорт недоступен, повторяется бесконечно
//   - ErrAuth, ErrChannel, ErrDeclare — ошибка конфигурации, фатальна
//   - ErrBroker — сбой брокера во время работы, фатален
//   - ErrIdle — за таймаут сообщений не было (не ошибка)
package mq
