package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/testutil"
)

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(
		repository.NewUserRepository(db),
		repository.NewContractRepository(db),
		repository.NewAnalysisRepository(db),
	)
}

func TestUserService_GetProfile_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := newUserService(db)

	user := testutil.TestUser(t, db,
		testutil.WithUsername("profileuser"),
		testutil.WithSubscription("basic", 30),
	)

	profile, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "profileuser", profile.Username)
	assert.Equal(t, "basic", profile.SubscriptionLevel)
	require.NotNil(t, profile.QuotaInfo)
	assert.Equal(t, 30, profile.QuotaInfo.DailyQuota)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := newUserService(db).GetProfile(99999)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := newUserService(db)
	user := testutil.TestUser(t, db)

	newName := "renamed"
	company := "Acme Ltd"
	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &newName,
		Company:  &company,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", info.Username)
	assert.Equal(t, "Acme Ltd", info.Company)
}

func TestUserService_UpdateProfile_UsernameTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := newUserService(db)
	testutil.TestUser(t, db, testutil.WithUsername("taken"))
	user := testutil.TestUser(t, db)

	taken := "taken"
	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Username: &taken})
	assert.Equal(t, ErrUsernameExists, err)
}

func TestUserService_GetStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := newUserService(db)
	user := testutil.TestUser(t, db, testutil.WithSubscription("pro", 100))

	analyzed := testutil.TestContract(t, db, user.ID, testutil.WithStatus(model.ContractStatusAnalyzed))
	testutil.TestContract(t, db, user.ID)
	testutil.TestAnalysis(t, db, analyzed.ID, testutil.WithTokens(300))
	testutil.TestAnalysis(t, db, analyzed.ID, testutil.WithTokens(200))

	stats, err := service.GetStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalContracts)
	assert.Equal(t, int64(1), stats.AnalyzedContracts)
	assert.Equal(t, int64(2), stats.TotalAnalyses)
	assert.Equal(t, int64(500), stats.TotalTokens)
	assert.Equal(t, "pro", stats.SubscriptionLevel)
	assert.NotEmpty(t, stats.MemberSince)
}
