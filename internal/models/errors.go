package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed возвращается при обращении к завершенной сессии оповещений
	ErrSessionClosed = errors.New("alert session closed")
	// ErrSessionNotFound - для пользователя нет активной сессии
	ErrSessionNotFound = errors.New("alert session not found")
)

// TransientFetchError - хранилище инцидентов недоступно, курсор не сдвигается, повтор на следующем тике
type TransientFetchError struct {
	Op  string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error in %s: %v", e.Op, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// TransportError - push-канал недоступен, работа продолжается через опрос
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedIncidentError - у инцидента нет корректных координат, он не участвует в сопоставлении с зонами
type MalformedIncidentError struct {
	IncidentID int64
	Location   Location
}

func (e *MalformedIncidentError) Error() string {
	return fmt.Sprintf("incident %d has malformed location (lat=%v, lng=%v)",
		e.IncidentID, e.Location.Latitude, e.Location.Longitude)
}

// ChannelDeliveryError - сбой одного канала доставки
type ChannelDeliveryError struct {
	Channel    ChannelKind
	IncidentID int64
	Err        error
}

func (e *ChannelDeliveryError) Error() string {
	return fmt.Sprintf("channel %s failed to deliver incident %d: %v", e.Channel, e.IncidentID, e.Err)
}

func (e *ChannelDeliveryError) Unwrap() error { return e.Err }
