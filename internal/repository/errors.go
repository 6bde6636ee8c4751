package repository

import "errors"

var (
	// ErrStartTimeTaken возвращается при нарушении частичного уникального
	// индекса по start_time среди активных бронирований
	ErrStartTimeTaken = errors.New("start time already taken by an active booking")

	// ErrSessionFull возвращается, когда в субботней сессии нет мест
	ErrSessionFull = errors.New("saturday session is full")

	// ErrPaymentNotFound возвращается, когда у бронирования нет
	// подходящей pending-записи платежа
	ErrPaymentNotFound = errors.New("pending payment record not found")
)
