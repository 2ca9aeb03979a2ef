// Package producer генерирует синтетические задачи и публикует их в очередь tasks.
//
// # Обзор
//
// Producer — однопоточный цикл:
//
//  1. Объявление очередей (tasks, results)
//  2. Генерация задачи N×N со случайными элементами 0..9
//  3. Кодирование и публикация в tasks
//  4. Пауза RateLimit (между публикациями)
//  5. Проверка отмены ctx, переход к шагу 2
//
// Цикл завершается, когда отправлено TaskCount задач, либо (в режиме
// Infinite) только по отмене ctx. Начатая публикация доводится до конца:
// частично отправленных задач не бывает.
//
//	p := producer.New(producer.Config{
//	    Broker:     broker,
//	    TaskCount:  10,
//	    MatrixSize: 10,
//	    RateLimit:  200 * time.Millisecond,
//	    Logger:     logger,
//	})
//	summary, err := p.Run(ctx)
package producer
