// Package codec реализует текстовый формат сообщений.
//
// Task кодируется как последовательность десятичных целых через пробел:
//
//	N a[0][0] a[0][1] ... a[N-1][N-1] b[0][0] ... b[N-1][N-1]
//
// Result кодируется строкой:
//
//	SUM=<checksum> TIME=<elapsedMillis>ms
//
// DecodeTask принимает любые пробельные разделители и игнорирует
// лишние токены после 2·N² элементов.
package codec
