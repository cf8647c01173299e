package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus dispatches events to handlers by argument type. A handler is a
// func taking one argument, optionally returning an error; it receives every
// published event assignable to that argument.
type EventBus interface {
	Publish(event any)
	PublishE(event any) error
	Subscribe(handler any) (unsubscribe func())
	Clear()
	SubscribersCount() int
}

var (
	ErrNoSubscribers        = errors.New("eventbus: no matching subscribers")
	ErrInvalidHandlerReturn = errors.New("eventbus: invalid handler return signature")
)

type subscriber struct {
	id      uint64
	in      reflect.Type
	handler reflect.Value
}

type bus struct {
	log *logrus.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &bus{log: log}
}

// Accepts reports whether handler would be invoked for event.
func Accepts(handler any, event any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 {
		return false
	}
	return acceptsType(t.In(0), event)
}

func acceptsType(param reflect.Type, event any) bool {
	if event == nil {
		return param.Kind() == reflect.Interface || param.Kind() == reflect.Ptr
	}
	return reflect.TypeOf(event).AssignableTo(param)
}

func (b *bus) Subscribe(handler any) func() {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 {
		panic("eventbus: handler must be a func with exactly one argument")
	}
	if t.NumOut() > 1 || (t.NumOut() == 1 && t.Out(0) != errorType) {
		panic(ErrInvalidHandlerReturn)
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, in: t.In(0), handler: reflect.ValueOf(handler)})
	b.mu.Unlock()

	return func() { b.unsubscribe(id) }
}

func (b *bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *bus) Publish(event any) {
	if err := b.PublishE(event); err != nil {
		if b.log == nil {
			return
		}
		if errors.Is(err, ErrNoSubscribers) {
			b.log.Debugf("eventbus.Publish: no matching subscribers for %T", event)
			return
		}
		b.log.WithError(err).Warnf("eventbus.Publish: handler failed for %T", event)
	}
}

// PublishE delivers event and joins the handler errors. A panicking handler
// is reported as an error and does not stop delivery to the others.
func (b *bus) PublishE(event any) error {
	b.mu.RLock()
	matched := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if acceptsType(s.in, event) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	if len(matched) == 0 {
		return ErrNoSubscribers
	}

	var errs []error
	for _, s := range matched {
		if err := b.call(s, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *bus) call(s subscriber, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked: %v", s.handler.Type(), r)
		}
	}()
	arg := reflect.ValueOf(event)
	if event == nil {
		arg = reflect.Zero(s.in)
	}
	out := s.handler.Call([]reflect.Value{arg})
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

func (b *bus) Clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}

func (b *bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
