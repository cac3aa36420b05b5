package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/service"
)

func TestPlannerDefaultsOverlayStoredKeys(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	fallback := service.PlannerSettings{Weeks: 1, MealsPerWeek: 5, SpacingDays: 2, MealType: model.MealTypeDinner}

	got, err := service.PlannerDefaults(db, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	require.NoError(t, service.SetConfig(db, "PLAN.Weeks", " 3 "))
	require.NoError(t, service.SetConfig(db, service.ConfigPlanMealType, "Lunch"))
	got, err = service.PlannerDefaults(db, fallback)
	require.NoError(t, err)
	assert.Equal(t, service.PlannerSettings{Weeks: 3, MealsPerWeek: 5, SpacingDays: 2, MealType: model.MealTypeLunch}, got)

	v, ok, err := service.GetConfig(db, "plan.weeks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	all, err := service.ListConfig(db)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetConfigValidatesPlannerKeys(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	assert.Error(t, service.SetConfig(db, service.ConfigPlanMealsPerWeek, "8"))
	assert.Error(t, service.SetConfig(db, service.ConfigPlanSpacingDays, "-1"))
	assert.Error(t, service.SetConfig(db, service.ConfigPlanWeeks, "two"))
	assert.Error(t, service.SetConfig(db, service.ConfigPlanWeeks, "521"))
	assert.Error(t, service.SetConfig(db, service.ConfigPlanMealType, "brunch"))
	assert.Error(t, service.SetConfig(db, " ", "x"))
	require.NoError(t, service.SetConfig(db, "ui.theme", "anything"))

	_, ok, err := service.GetConfig(db, "missing.key")
	require.NoError(t, err)
	assert.False(t, ok)
}
