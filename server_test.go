package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type providerMock struct {
	mock.Mock
}

func (m *providerMock) Name() string {
	return "fake"
}

func (m *providerMock) Lookup(ctx context.Context, query geolib.Query) (geolib.NormalizedRecord, error) {
	args := m.Called(ctx, query)

	return args.Get(0).(geolib.NormalizedRecord), args.Error(1)
}

type historyMock struct {
	mock.Mock
}

func (m *historyMock) Recent(ctx context.Context, limit int) ([]storage.Entry, error) {
	args := m.Called(ctx, limit)

	return args.Get(0).([]storage.Entry), args.Error(1)
}

type ServerTestSuite struct {
	suite.Suite

	prov         *providerMock
	history      *historyMock
	orchestrator *geolib.Orchestrator
	conf         *config
}

func (suite *ServerTestSuite) SetupTest() {
	suite.prov = &providerMock{}
	suite.history = &historyMock{}
	suite.conf = &config{}

	registry, err := geolib.NewRegistry([]geolib.Provider{suite.prov}, "")
	suite.Require().NoError(err)

	orchestrator, err := geolib.NewOrchestrator(geolib.Opts{
		Registry: registry,
		Logger:   newLogger(io.Discard, false),
	})
	suite.Require().NoError(err)

	suite.orchestrator = orchestrator
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.orchestrator.Shutdown()
	suite.prov.AssertExpectations(suite.T())
	suite.history.AssertExpectations(suite.T())
}

func (suite *ServerTestSuite) serve(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()

	makeServer(suite.orchestrator, suite.history, suite.conf).ServeHTTP(rec, req)

	return rec.Result()
}

func (suite *ServerTestSuite) TestResolve() {
	suite.prov.
		On("Lookup", mock.Anything, geolib.Query("1.1.1.1")).
		Return(geolib.NormalizedRecord{City: "Sydney"}, nil)

	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/resolve?ip=1.1.1.1", nil))

	suite.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)

	suite.Contains(string(body), "Sydney")
}

func (suite *ServerTestSuite) TestSelfBehindProxy() {
	suite.prov.
		On("Lookup", mock.Anything, geolib.Query("8.8.8.8")).
		Return(geolib.NormalizedRecord{City: "Mountain View"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "8.8.8.8")

	resp := suite.serve(req)

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestPersistedHistory() {
	suite.history.
		On("Recent", mock.Anything, 2).
		Return([]storage.Entry{{ID: 2, Target: "1.1.1.1", TargetType: geolib.TargetIP}}, nil)

	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/history?limit=2", nil))

	suite.Equal(http.StatusOK, resp.StatusCode)

	data := struct {
		Entries []storage.Entry `json:"entries"`
	}{}

	suite.NoError(json.NewDecoder(resp.Body).Decode(&data))
	suite.Len(data.Entries, 1)
	suite.Equal("1.1.1.1", data.Entries[0].Target)
}

func (suite *ServerTestSuite) TestPersistedHistoryDefaultLimit() {
	suite.history.
		On("Recent", mock.Anything, storage.DefaultRecentLimit).
		Return([]storage.Entry{}, nil)

	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/history", nil))

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestPersistedHistoryBadLimit() {
	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/history?limit=-1", nil))

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *ServerTestSuite) TestPersistedHistoryFailure() {
	suite.history.
		On("Recent", mock.Anything, storage.DefaultRecentLimit).
		Return([]storage.Entry(nil), storage.ErrPersistence)

	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/history", nil))

	suite.Equal(http.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)

	suite.Contains(string(body), `"message":"Cannot read history"`)
}

func (suite *ServerTestSuite) TestMetrics() {
	suite.prov.
		On("Lookup", mock.Anything, geolib.Query("1.1.1.1")).
		Return(geolib.NormalizedRecord{}, errors.New("boom"))

	handler := makeServer(suite.orchestrator, suite.history, suite.conf)

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/resolve?ip=1.1.1.1", nil))

	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()

	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(body, `geotrack_provider_lookups_total{provider="fake",status="failure"} 1`)
	suite.Contains(body, `geotrack_provider_lookups_total{provider="fake",status="success"} 0`)
	suite.Contains(body, `geotrack_http_requests_total{code="503",method="get"} 1`)
	suite.True(strings.Contains(body, "geotrack_provider_last_failed_timestamp_seconds"))
}

func (suite *ServerTestSuite) TestBasicAuth() {
	suite.conf.BasicAuth = configBasicAuth{User: "user", Password: "password"}

	resp := suite.serve(httptest.NewRequest(http.MethodGet, "/stats", nil))

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
	suite.NotEmpty(resp.Header.Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.SetBasicAuth("user", "password")

	resp = suite.serve(req)

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func TestServer(t *testing.T) {
	suite.Run(t, &ServerTestSuite{})
}
