package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

const studiesJSON = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT05000001", "briefTitle": "CAR-T in DLBCL", "officialTitle": "A Phase 3 Study"},
        "statusModule": {"overallStatus": "RECRUITING", "startDateStruct": {"date": "2023-01"}, "completionDateStruct": {"date": "2026-12"}},
        "designModule": {"phases": ["PHASE3"], "enrollmentInfo": {"count": 250}},
        "conditionsModule": {"conditions": ["Lymphoma", "DLBCL"]},
        "armsInterventionsModule": {"interventions": [{"type": "BIOLOGICAL", "name": "axi-cel"}]}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT05000002"}
      }
    },
    "garbage"
  ]
}`

func TestClient_Search(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(studiesJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v2/studies", 5, []string{"RECRUITING", "COMPLETED"})
	trials, err := c.Search(context.Background(), &Request{Condition: "CAR-T Cell Therapy", MaxResults: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"CAR-T Cell Therapy"}, gotQuery["query.cond"])
	assert.Equal(t, []string{"RECRUITING|COMPLETED"}, gotQuery["filter.overallStatus"])
	assert.Equal(t, []string{"10"}, gotQuery["pageSize"])
	assert.Equal(t, []string{"json"}, gotQuery["format"])

	require.Len(t, trials, 2)
	first := trials[0]
	assert.Equal(t, "NCT05000001", first.NCTID)
	assert.Equal(t, "CAR-T in DLBCL", first.Title)
	assert.Equal(t, "PHASE3", first.Phase)
	assert.Equal(t, []string{"Lymphoma", "DLBCL"}, first.Conditions)
	assert.Equal(t, []model.Intervention{{Type: "BIOLOGICAL", Name: "axi-cel"}}, first.Interventions)
	assert.Equal(t, model.Enrollment(250), first.Enrollment)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT05000001", first.URL)

	sparse := trials[1]
	assert.Equal(t, "No title", sparse.Title)
	assert.Equal(t, "N/A", sparse.Phase)
	assert.Equal(t, model.Unknown, sparse.Status)
	assert.Equal(t, model.UnknownEnrollment, sparse.Enrollment)
	assert.Empty(t, sparse.Conditions)
	assert.NotNil(t, sparse.Conditions)
}

func TestClient_SearchTruncatesToMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(studiesJSON))
	}))
	defer srv.Close()

	trials, err := NewClient(srv.URL, 0, nil).Search(context.Background(), &Request{Condition: "x", MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, trials, 1)
}

func TestClient_SearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, nil).Search(context.Background(), &Request{Condition: "x"})
	assert.ErrorContains(t, err, "status 503")
}

func TestClient_SearchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, nil).Search(context.Background(), &Request{Condition: "x"})
	assert.Error(t, err)
}
