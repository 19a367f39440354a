package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

type StorageTestSuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *Storage
}

func (s *StorageTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)
	s.store = NewWithDB(s.db)
}

func (s *StorageTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func analyzedFixture() []model.AnalyzedTrial {
	return []model.AnalyzedTrial{
		{
			TrialRecord: model.TrialRecord{NCTID: "NCT1", Title: "A", Phase: "PHASE3", Conditions: []string{"Lymphoma"}, Enrollment: 100},
			Analysis:    model.Classification{TherapeuticArea: "Oncology", KeyInsights: []string{}},
		},
		{
			TrialRecord: model.TrialRecord{NCTID: "NCT2", Title: "B", Phase: "PHASE1", Enrollment: model.UnknownEnrollment},
			Analysis:    model.Classification{TherapeuticArea: "Neurology", KeyInsights: []string{}},
		},
	}
}

func (s *StorageTestSuite) TestInitSchema() {
	for i := 0; i < 3; i++ {
		s.mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s.NoError(s.store.InitSchema(context.Background()))
}

func (s *StorageTestSuite) TestCreateRun() {
	s.mock.ExpectQuery("INSERT INTO analysis_runs").
		WithArgs("CAR-T", "mock", "gemini-2.0-flash", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := s.store.CreateRun(context.Background(), RunMeta{Condition: "CAR-T", Mode: "mock", Model: "gemini-2.0-flash", TotalTrials: 2})
	s.NoError(err)
	s.Equal(7, id)
}

func (s *StorageTestSuite) TestSaveAnalyzedTrials_Commit() {
	trials := analyzedFixture()
	s.mock.ExpectBegin()
	for i, t := range trials {
		s.mock.ExpectExec("INSERT INTO analyzed_trials").
			WithArgs(3, i, t.NCTID, t.Title, t.Phase, sqlmock.AnyArg(), t.Analysis.TherapeuticArea, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	s.mock.ExpectCommit()

	s.NoError(s.store.SaveAnalyzedTrials(context.Background(), 3, trials))
}

func (s *StorageTestSuite) TestSaveAnalyzedTrials_Rollback() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO analyzed_trials").WillReturnError(errors.New("disk full"))
	s.mock.ExpectRollback()

	err := s.store.SaveAnalyzedTrials(context.Background(), 3, analyzedFixture())
	s.ErrorContains(err, "NCT1")
}

func (s *StorageTestSuite) TestSaveResult() {
	result := &model.AnalysisResult{Trials: analyzedFixture()[:1], Summary: model.PortfolioSummary{TotalTrials: 1}}

	s.mock.ExpectQuery("INSERT INTO analysis_runs").
		WithArgs("CAR-T", "real", "m", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO analyzed_trials").WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()
	s.mock.ExpectExec("INSERT INTO portfolio_summaries").
		WithArgs(11, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.store.SaveResult(context.Background(), RunMeta{Condition: "CAR-T", Mode: "real", Model: "m"}, result)
	s.NoError(err)
	s.Equal(11, id)
}

func (s *StorageTestSuite) TestGetSummary() {
	want := model.PortfolioSummary{
		TotalTrials: 2,
		ByPhase:     map[string]int{"PHASE3": 2},
		AIInsights:  model.AIInsights{CompetitiveLandscape: "crowded", MarketTrends: []string{"up"}},
	}
	data, _ := json.Marshal(want)
	s.mock.ExpectQuery("SELECT summary FROM portfolio_summaries WHERE run_id = \\$1").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"summary"}).AddRow(data))

	got, err := s.store.GetSummary(context.Background(), 5)
	s.Require().NoError(err)
	s.Equal(want.TotalTrials, got.TotalTrials)
	s.Equal(want.ByPhase, got.ByPhase)
	s.Equal("crowded", got.AIInsights.CompetitiveLandscape)
}

func (s *StorageTestSuite) TestGetSummary_NotFound() {
	s.mock.ExpectQuery("SELECT summary FROM portfolio_summaries").
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := s.store.GetSummary(context.Background(), 9)
	s.ErrorIs(err, ErrNotFound)
}

func (s *StorageTestSuite) TestGetAnalyzedTrials() {
	rows := sqlmock.NewRows([]string{"record"})
	for _, t := range analyzedFixture() {
		data, _ := json.Marshal(t)
		rows.AddRow(data)
	}
	s.mock.ExpectQuery("SELECT record FROM analyzed_trials WHERE run_id = \\$1 ORDER BY position").
		WithArgs(3).
		WillReturnRows(rows)

	got, err := s.store.GetAnalyzedTrials(context.Background(), 3)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("NCT1", got[0].NCTID)
	s.Equal(model.Enrollment(100), got[0].Enrollment)
	s.Equal(model.UnknownEnrollment, got[1].Enrollment)
	s.Equal("Neurology", got[1].Analysis.TherapeuticArea)
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}
