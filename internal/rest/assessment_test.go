package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssessmentService struct {
	result domain.AssessmentResult
	err    error
	got    domain.ExperimentIterationRequest
}

func (f *fakeAssessmentService) Assess(ctx context.Context, req domain.ExperimentIterationRequest) (domain.AssessmentResult, error) {
	f.got = req
	return f.result, f.err
}

const validRequest = `{
  "name": "reviews-rollout",
  "start_time": "2026-10-17T10:00:00Z",
  "metric_specs": {
    "counter_metrics": [{"id": "iter8_request_count", "query_template": "sum(increase(requests[$interval])) by ($version_labels)"}],
    "ratio_metrics": []
  },
  "criteria": [],
  "baseline": {"id": "reviews-v1", "version_labels": {"destination_workload": "reviews-v1"}},
  "candidates": [{"id": "reviews-v2", "version_labels": {"destination_workload": "reviews-v2"}}],
  "traffic_control": {"strategy": "progressive", "max_increment": 5}
}`

func postAssessment(t *testing.T, svc AssessmentService, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessment", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewAssessmentHandler(validator.New(), svc)
	require.NoError(t, h.Assess(c))
	return rec
}

func TestAssessmentHandler_OK(t *testing.T) {
	svc := &fakeAssessmentService{result: domain.AssessmentResult{
		TrafficSplitRecommendation: map[string]map[string]int{
			domain.StrategyProgressive: {"reviews-v1": 98, "reviews-v2": 2},
		},
		Status: []domain.StatusCode{},
	}}

	rec := postAssessment(t, svc, validRequest)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"traffic_split_recommendation":{"progressive":{"reviews-v1":98,"reviews-v2":2}}`)
	assert.Equal(t, "reviews-v2", svc.got.Candidates[0].ID)
	require.NotNil(t, svc.got.TrafficControl.MaxIncrement)
	assert.Equal(t, 5, *svc.got.TrafficControl.MaxIncrement)
}

func TestAssessmentHandler_BadRequest(t *testing.T) {
	cases := map[string]string{
		"malformed json":   `{"name": `,
		"no start time":    strings.Replace(validRequest, `"start_time": "2026-10-17T10:00:00Z",`, "", 1),
		"unknown strategy": strings.Replace(validRequest, `"progressive"`, `"greedy"`, 1),
		"no baseline id":   strings.Replace(validRequest, `"id": "reviews-v1", `, "", 1),
		"huge sample size": strings.Replace(validRequest, `"traffic_control": {`,
			`"advanced_parameters": {"posterior_sample_size": 1000000000}, "traffic_control": {`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postAssessment(t, &fakeAssessmentService{}, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAssessmentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "fatal spec",
			err:  &analytics.FatalSpecError{Reason: analytics.ReasonUnknownMetric, Detail: "criterion c references unknown metric m"},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "data integrity",
			err: &analytics.FatalSpecError{
				Reason: analytics.ReasonDataIntegrity,
				Err:    analytics.ErrNumeratorExceedsDenominator,
			},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("fetch counter metrics: %w", context.DeadlineExceeded),
			code: http.StatusGatewayTimeout,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			code: http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAssessment(t, &fakeAssessmentService{err: tc.err}, validRequest)
			assert.Equal(t, tc.code, rec.Code)
		})
	}

	rec := postAssessment(t, &fakeAssessmentService{err: cases[0].err}, validRequest)
	assert.Contains(t, rec.Body.String(), `"reason":"unknown_metric"`)
}
