package consumer

import "errors"

// Ошибки consumer'а.
var (
	// ErrPublishResult — не удалось опубликовать результат.
	ErrPublishResult = errors.New("publish result failed")

	// ErrAck — не удалось подтвердить сообщение.
	ErrAck = errors.New("acknowledge failed")

	// ErrConsume — брокер вернул ошибку при получении сообщения.
	ErrConsume = errors.New("consume failed")
)
