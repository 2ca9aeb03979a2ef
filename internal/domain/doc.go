// Package domain содержит доменные модели системы распределения задач.
//
// Модели:
//   - Matrix — квадратная целочисленная матрица (row-major)
//   - Task   — задача на умножение двух матриц одинаковой размерности
//   - Result — результат выполнения задачи (контрольная сумма и время)
//
// Task создаётся Producer'ом или декодированием входящего сообщения и
// не изменяется после создания. Result создаётся Compute Step'ом
// и публикуется один раз.
package domain
