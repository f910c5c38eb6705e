package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

func TestNewStakePlan_EmptyStringsDisablePlan(t *testing.T) {
	plan, err := domain.NewStakePlan("", "")
	require.NoError(t, err)

	assert.False(t, plan.Enabled())
	assert.Equal(t, "2", plan.Multiplier.String(), "multiplicador por defecto")
	assert.Equal(t, "0", plan.StakeFor(0).String())
}

func TestNewStakePlan_Validation(t *testing.T) {
	_, err := domain.NewStakePlan("abc", "2")
	assert.Error(t, err)

	_, err = domain.NewStakePlan("-1", "2")
	assert.Error(t, err, "la base no puede ser negativa")

	_, err = domain.NewStakePlan("10", "x")
	assert.Error(t, err)

	_, err = domain.NewStakePlan("10", "0")
	assert.Error(t, err, "el multiplicador tiene que ser positivo")
}

func TestStakePlan_StakeForDoublesPerStage(t *testing.T) {
	plan, err := domain.NewStakePlan("2.50", "2")
	require.NoError(t, err)

	assert.True(t, plan.Enabled())
	assert.Equal(t, "2.5", plan.StakeFor(0).String())
	assert.Equal(t, "5", plan.StakeFor(1).String())
	assert.Equal(t, "10", plan.StakeFor(2).String())
}

func TestStakePlan_StakeForNonIntegerMultiplier(t *testing.T) {
	plan, err := domain.NewStakePlan("10", "1.5")
	require.NoError(t, err)

	assert.Equal(t, "10", plan.StakeFor(0).String())
	assert.Equal(t, "15", plan.StakeFor(1).String())
	assert.Equal(t, "22.5", plan.StakeFor(2).String())
}

func TestStakePlan_TotalRisk(t *testing.T) {
	plan, err := domain.NewStakePlan("2.50", "2")
	require.NoError(t, err)

	// 2.5 + 5 + 10
	assert.Equal(t, "17.5", plan.TotalRisk(2).String())
	assert.Equal(t, "2.5", plan.TotalRisk(0).String())
}
