package notifications

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Provider interface {
	send(ctx context.Context, msg Message) error
	name() string
}

type Manager interface {
	Publish(ctx context.Context, msg Message) error
	AddProvider(provider Provider)
}

type ManagerImpl struct {
	provider []Provider
}

type DummyManagerImpl struct {
	Published []Message
}

func NewManager() *ManagerImpl {
	return &ManagerImpl{
		provider: []Provider{},
	}
}

func NewDummyManager() *DummyManagerImpl {
	return &DummyManagerImpl{}
}

func (m *ManagerImpl) AddProvider(provider Provider) {
	m.provider = append(m.provider, provider)
}

// Publish sends the message through every provider and returns
// the failures of all of them
func (m *ManagerImpl) Publish(ctx context.Context, msg Message) error {
	if len(m.provider) == 0 {
		return errors.New("no notification provider configured")
	}

	var errs []error
	for _, p := range m.provider {
		err := p.send(ctx, msg)
		if err != nil {
			logrus.Warnf("cannot send notification through %s: %s", p.name(), err)
			errs = append(errs, pkgerrors.Wrapf(err, "%s", p.name()))
			continue
		}
		logrus.Infof("digest published through %s", p.name())
	}

	return errors.Join(errs...)
}

func (m *DummyManagerImpl) Publish(ctx context.Context, msg Message) error {
	m.Published = append(m.Published, msg)
	return nil
}

func (m *DummyManagerImpl) AddProvider(provider Provider) {
}
