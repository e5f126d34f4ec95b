package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/testutil"
)

func TestAnalysisRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	contract := testutil.TestContract(t, db, user.ID)

	analysis := &model.Analysis{
		ContractID:     contract.ID,
		ModelUsed:      "test-model",
		AnalysisType:   "comprehensive",
		RiskScore:      55,
		RiskLevel:      "Medium",
		CategoryScores: datatypes.JSON(`{"payment_terms":55}`),
		Result:         datatypes.JSON(`{}`),
	}
	factors := []model.RiskFactor{
		{Category: model.RiskCategoryFactor, Severity: "High", Description: "Unlimited liability"},
		{Category: model.RiskCategoryMissing, Severity: "Medium", Description: "Missing clause: Force majeure"},
	}

	err := repo.Create(analysis, factors, map[string]interface{}{
		"status":        model.ContractStatusAnalyzed,
		"contract_type": "Lease",
	})
	require.NoError(t, err)
	assert.NotZero(t, analysis.ID)
	require.Len(t, analysis.RiskFactors, 2)

	found, err := repo.GetByID(analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ID, found.ContractID)
	require.Len(t, found.RiskFactors, 2)
	for _, f := range found.RiskFactors {
		assert.Equal(t, analysis.ID, f.AnalysisID)
	}

	var updated model.Contract
	require.NoError(t, db.First(&updated, contract.ID).Error)
	assert.Equal(t, model.ContractStatusAnalyzed, updated.Status)
	assert.Equal(t, "Lease", updated.ContractType)
}

func TestAnalysisRepository_Create_ContractUpdateFailsRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	contract := testutil.TestContract(t, db, user.ID)

	analysis := &model.Analysis{ContractID: contract.ID, Result: datatypes.JSON(`{}`), CategoryScores: datatypes.JSON(`{}`)}
	err := repo.Create(analysis,
		[]model.RiskFactor{{Category: model.RiskCategoryFactor, Severity: "Low"}},
		map[string]interface{}{"no_such_column": "x"},
	)
	require.Error(t, err)

	var analyses, factors int64
	db.Model(&model.Analysis{}).Where("contract_id = ?", contract.ID).Count(&analyses)
	db.Model(&model.RiskFactor{}).Count(&factors)
	assert.Zero(t, analyses)
	assert.Zero(t, factors)

	var unchanged model.Contract
	require.NoError(t, db.First(&unchanged, contract.ID).Error)
	assert.Equal(t, contract.Status, unchanged.Status)
}

func TestAnalysisRepository_Create_ContractMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)

	analysis := &model.Analysis{ContractID: 99999, Result: datatypes.JSON(`{}`), CategoryScores: datatypes.JSON(`{}`)}
	err := repo.Create(analysis, []model.RiskFactor{{Category: model.RiskCategoryFactor}}, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	db.Model(&model.RiskFactor{}).Count(&count)
	assert.Zero(t, count)
}

func TestAnalysisRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)

	_, err := repo.GetByID(99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAnalysisRepository_LatestAndHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	contract := testutil.TestContract(t, db, user.ID)

	testutil.TestAnalysis(t, db, contract.ID, testutil.WithRisk(20, "Low"))
	testutil.TestAnalysis(t, db, contract.ID, testutil.WithRisk(50, "Medium"))
	last := testutil.TestAnalysis(t, db, contract.ID, testutil.WithRisk(80, "High"))

	latest, err := repo.GetLatestByContractID(contract.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
	assert.Equal(t, "High", latest.RiskLevel)

	history, err := repo.ListByContractID(contract.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, last.ID, history[0].ID)

	_, err = repo.GetLatestByContractID(99999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAnalysisRepository_CountByContractIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	c1 := testutil.TestContract(t, db, user.ID)
	c2 := testutil.TestContract(t, db, user.ID)

	testutil.TestAnalysis(t, db, c1.ID)
	testutil.TestAnalysis(t, db, c1.ID)

	counts, err := repo.CountByContractIDs([]int64{c1.ID, c2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[c1.ID])
	assert.Equal(t, int64(0), counts[c2.ID])

	empty, err := repo.CountByContractIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnalysisRepository_LatestForAnalyzedContracts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	c1 := testutil.TestContract(t, db, user.ID, testutil.WithStatus(model.ContractStatusAnalyzed))
	c2 := testutil.TestContract(t, db, user.ID, testutil.WithStatus(model.ContractStatusError))
	c3 := testutil.TestContract(t, db, other.ID, testutil.WithStatus(model.ContractStatusAnalyzed))

	testutil.TestAnalysis(t, db, c1.ID, testutil.WithRisk(10, "Low"))
	want := testutil.TestAnalysis(t, db, c1.ID, testutil.WithRisk(90, "High"))
	testutil.TestAnalysis(t, db, c2.ID, testutil.WithRisk(50, "Medium"))
	testutil.TestAnalysis(t, db, c3.ID, testutil.WithRisk(50, "Medium"))

	analyses, err := repo.LatestForAnalyzedContracts(user.ID)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, want.ID, analyses[0].ID)
}

func TestAnalysisRepository_UsageByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAnalysisRepository(db)
	user := testutil.TestUser(t, db)
	contract := testutil.TestContract(t, db, user.ID)

	testutil.TestAnalysis(t, db, contract.ID, testutil.WithTokens(100))
	testutil.TestAnalysis(t, db, contract.ID, testutil.WithTokens(250))

	stats, err := repo.UsageByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.AnalysisCount)
	assert.Equal(t, int64(350), stats.TotalTokens)

	empty, err := repo.UsageByUserID(99999)
	require.NoError(t, err)
	assert.Zero(t, empty.AnalysisCount)
	assert.Zero(t, empty.TotalTokens)
}
