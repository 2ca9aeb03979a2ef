// Package consumer реализует цикл потребления задач.
//
// # Состояния
//
//	WAITING ──message──▶ PROCESSING ──▶ ACKING ──▶ WAITING
//	   │
//	   ├──timeout × IdleThreshold──▶ DRAINING_IDLE (выход, статус 0)
//	   ├──ctx отменён──────────────▶ SHUTTING_DOWN (выход, статус 0)
//	   └──ошибка брокера───────────▶ FAILED        (выход, статус 1)
//
// Переход после каждого ConsumeNext вычисляет чистая функция Next
// по (результат вызова, счётчик простоя, запрошена ли остановка).
// Отмена проверяется после каждого блокирующего вызова; доставленное,
// но не обработанное сообщение при остановке не подтверждается и
// возвращается брокером в очередь.
//
// # Подтверждения
//
// Каждое доставленное сообщение получает ровно один исход:
//   - обработано → результат опубликован в results → ack
//   - не разобрано → запись в лог → ack (poison message не доставляется повторно)
//
// Ошибка публикации результата или ack фатальна: сообщение остаётся
// неподтверждённым и будет доставлено другому consumer'у.
package consumer
