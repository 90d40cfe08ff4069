package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyfan1/timegate/internal/api"
	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/config"
	"github.com/garyfan1/timegate/internal/dispatch"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/scheduler"
	"github.com/garyfan1/timegate/internal/substrate"
	"github.com/garyfan1/timegate/internal/testsupport"
)

func TestRequestLoggerUsesServiceLogger(t *testing.T) {
	// The middleware derives the request-scoped logger from the service
	// logger, so its global attributes reach both the completion line and
	// the handler's own log output via logger.FromContext.
	clock := func() time.Time { return apiNow }

	rules := substrate.NewEmbedded(nil, nil, substrate.WithClock(clock))
	t.Cleanup(rules.Close)

	var buf bytes.Buffer
	logg := logger.NewWithWriter(&config.AppConfig{
		Name:      "timegate-test",
		Version:   "v0.0.0-test",
		Stage:     config.StageDev,
		LogLevel:  "info",
		LogFormat: "json",
	}, &buf)

	engine := scheduler.NewEngine(rules, testsupport.NewFakeOwnerships(), nil, "target-arn", nil,
		scheduler.WithClock(clock))
	app := api.NewAPI(testsupport.NewFakeAccounts(), engine,
		auth.NewTokens(testSecret, 60, auth.WithClock(clock)),
		dispatch.New(nil, nil), logg, bcrypt.MinCost, "")

	req := httptest.NewRequest(http.MethodPost, "/account", strings.NewReader(`{"account":"tenant-a"}`))
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"account created"`)
	assert.Contains(t, logs, `"msg":"HTTP request completed"`)
	assert.Contains(t, logs, `"request_id"`)

	// Every line carries the service attributes, the handler's included.
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		assert.Contains(t, line, `"service":"timegate-test"`)
		assert.Contains(t, line, `"stage":"dev"`)
	}
}
