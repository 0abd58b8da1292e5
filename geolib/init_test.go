package geolib_test

import (
	"context"

	"github.com/geotrack/geotrack/geolib"
	"github.com/stretchr/testify/mock"
)

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) Lookup(ctx context.Context, query geolib.Query) (geolib.NormalizedRecord, error) {
	args := m.Called(ctx, query)

	return args.Get(0).(geolib.NormalizedRecord), args.Error(1)
}

func (m *ProviderMock) Name() string {
	return m.Called().String(0)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) QueryError(value string, err error) {
	m.Called(value, err)
}

func (m *LoggerMock) LookupError(query geolib.Query, name string, err error) {
	m.Called(query, name, err)
}

func (m *LoggerMock) PersistError(target string, err error) {
	m.Called(target, err)
}

func (m *LoggerMock) TrackInfo(result geolib.ReconciledResult) {
	m.Called(result)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Save(ctx context.Context, target string, targetType geolib.TargetType, result geolib.ReconciledResult) error {
	return m.Called(ctx, target, targetType, result).Error(0)
}

type PublicIPMock struct {
	mock.Mock
}

func (m *PublicIPMock) PublicIP(ctx context.Context) (geolib.Query, error) {
	args := m.Called(ctx)

	return args.Get(0).(geolib.Query), args.Error(1)
}

func coord(value float64) *float64 {
	return &value
}
