package ir

import (
	"fmt"

	"github.com/bt2go/bt2"
)

// LogLevel mirrors the common CTF/LTTng severity scale. It is optional
// metadata attached to an EventClass purely for filtering and display.
type LogLevel int

const (
	LogLevelEmergency LogLevel = iota
	LogLevelAlert
	LogLevelCritical
	LogLevelError
	LogLevelWarning
	LogLevelNotice
	LogLevelInfo
	LogLevelDebugSystem
	LogLevelDebugProgram
	LogLevelDebugProcess
	LogLevelDebugModule
	LogLevelDebugUnit
	LogLevelDebugFunction
	LogLevelDebugLine
	LogLevelDebug
)

// EventClass describes one kind of event that may occur on streams of a
// given StreamClass: its id, name, and the shape of its fields.
type EventClass struct {
	*bt2.SharedObject

	id   uint64
	name string

	logLevel *LogLevel
	emfURI   string

	specificContextFC *FieldClass
	payloadFC         *FieldClass

	streamClass *StreamClass
}

// NewEventClass creates an event class with the given id, unattached to any
// StreamClass. AppendEventClass on a StreamClass performs the attachment.
func NewEventClass(id uint64, name string) *EventClass {
	ec := &EventClass{id: id, name: name}
	ec.SharedObject = bt2.NewSharedObject(nil, nil)
	return ec
}

func (ec *EventClass) ID() uint64     { return ec.id }
func (ec *EventClass) Name() string   { return ec.name }
func (ec *EventClass) StreamClass() *StreamClass { return ec.streamClass }

func (ec *EventClass) LogLevel() (LogLevel, bool) {
	if ec.logLevel == nil {
		return 0, false
	}
	return *ec.logLevel, true
}

func (ec *EventClass) SetLogLevel(level LogLevel) error {
	if err := ec.MutateGuard(); err != nil {
		return err
	}
	ec.logLevel = &level
	return nil
}

func (ec *EventClass) EMFURI() (string, bool) {
	if ec.emfURI == "" {
		return "", false
	}
	return ec.emfURI, true
}

func (ec *EventClass) SetEMFURI(uri string) error {
	if err := ec.MutateGuard(); err != nil {
		return err
	}
	ec.emfURI = uri
	return nil
}

func (ec *EventClass) SpecificContextFieldClass() *FieldClass { return ec.specificContextFC }

func (ec *EventClass) SetSpecificContextFieldClass(fc *FieldClass) error {
	if err := ec.MutateGuard(); err != nil {
		return err
	}
	ec.specificContextFC = fc
	return nil
}

func (ec *EventClass) PayloadFieldClass() *FieldClass { return ec.payloadFC }

func (ec *EventClass) SetPayloadFieldClass(fc *FieldClass) error {
	if err := ec.MutateGuard(); err != nil {
		return err
	}
	ec.payloadFC = fc
	return nil
}

func (ec *EventClass) freezeFieldClasses() {
	ec.specificContextFC.Freeze()
	ec.payloadFC.Freeze()
}

var errEventClassAlreadyAttached = fmt.Errorf("bt2/ir: event class already belongs to a stream class")
