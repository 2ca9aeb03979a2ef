package mq

import "errors"

// Ошибки брокера.
var (
	// ErrConnect — транспортная ошибка соединения (хост недоступен, отказ в соединении).
	ErrConnect = errors.New("broker connect failed")

	// ErrAuth — брокер отклонил логин или vhost.
	ErrAuth = errors.New("broker authentication failed")

	// ErrChannel — не удалось открыть или настроить канал.
	ErrChannel = errors.New("broker channel open failed")

	// ErrDeclare — не удалось объявить очередь.
	ErrDeclare = errors.New("queue declare failed")

	// ErrBroker — ошибка брокера во время работы (канал закрыт, нарушение протокола).
	ErrBroker = errors.New("broker runtime error")

	// ErrIdle — за отведённое время сообщений не поступило.
	ErrIdle = errors.New("no message within timeout")

	// ErrClosed — соединение уже закрыто.
	ErrClosed = errors.New("broker connection closed")

	// ErrAlreadyAcked — сообщение уже подтверждено.
	ErrAlreadyAcked = errors.New("delivery already acknowledged")
)

// IsFatal сообщает, что ошибка требует завершения процесса.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) ||
		errors.Is(err, ErrChannel) ||
		errors.Is(err, ErrDeclare) ||
		errors.Is(err, ErrBroker) ||
		errors.Is(err, ErrClosed)
}
