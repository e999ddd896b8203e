package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

// TestNextInspectionStatus: advance ходит только по рабочей цепочке
func TestNextInspectionStatus(t *testing.T) {
	next, ok := models.NextInspectionStatus(models.InspectionAssigned)
	assert.True(t, ok)
	assert.Equal(t, models.InspectionInProgress, next)

	next, ok = models.NextInspectionStatus(models.InspectionReportInProgress)
	assert.True(t, ok)
	assert.Equal(t, models.InspectionDone, next)

	for _, s := range []models.InspectionStatus{models.InspectionNew, models.InspectionWaitingForExpert, models.InspectionDone, models.InspectionCancelled} {
		_, ok := models.NextInspectionStatus(s)
		assert.False(t, ok, s)
	}
}

func TestRequiresExpert(t *testing.T) {
	assert.True(t, models.InspectionInProgress.RequiresExpert())
	assert.False(t, models.InspectionDone.RequiresExpert())
	assert.False(t, models.InspectionCancelled.RequiresExpert())
	assert.False(t, models.InspectionStatus("FLYING").Valid())
}

// TestAmountJSON: договорная цена кодируется строкой "custom"
func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal([]models.Amount{models.FixedAmount(6500), models.CustomAmount()})
	require.NoError(t, err)
	assert.JSONEq(t, `[6500, "custom"]`, string(data))

	var back []models.Amount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []models.Amount{models.FixedAmount(6500), models.CustomAmount()}, back)

	var bad models.Amount
	assert.Error(t, json.Unmarshal([]byte(`"cheap"`), &bad))
}

func TestParseAmount(t *testing.T) {
	a, err := models.ParseAmount("custom")
	require.NoError(t, err)
	assert.True(t, a.Custom)

	a, err = models.ParseAmount("4500")
	require.NoError(t, err)
	assert.Equal(t, "4 500", a.String())

	_, err = models.ParseAmount("дорого")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", models.FormatAmount(0))
	assert.Equal(t, "999", models.FormatAmount(999))
	assert.Equal(t, "1 500 000", models.FormatAmount(1500000))
	assert.Equal(t, "-12 000", models.FormatAmount(-12000))
}

func TestVehicleTitle(t *testing.T) {
	assert.Equal(t, "Kia K5 2021", models.VehicleTitle("Kia", "K5", 2021))
	assert.Equal(t, "Kia", models.VehicleTitle(" Kia ", "", 0))
}

// TestPriceSegment: числовой минимум бюджета важнее строки
func TestPriceSegment(t *testing.T) {
	lo := int64(2500000)
	assert.Equal(t, "2 500 000 ₽", models.SelectionOrder{Budget: "2.5-3 млн", BudgetMin: &lo}.PriceSegment())
	assert.Equal(t, "2.5-3 млн ₽", models.SelectionOrder{Budget: "2.5-3 млн"}.PriceSegment())
	assert.Equal(t, "1 000 000–1 500 000 ₽", models.SelectionOrder{Budget: "1 000 000–1 500 000 ₽"}.PriceSegment())
	assert.Empty(t, models.SelectionOrder{}.PriceSegment())
}

func TestExpertCoverage(t *testing.T) {
	e := models.Expert{Cities: []string{"Москва"}, Brands: []string{"BMW"}, BrandTags: []string{"Mini"}}
	assert.True(t, e.ServesCity("Москва"))
	assert.False(t, e.ServesCity("Казань"))
	assert.True(t, e.CoversBrand("Mini"))
	assert.False(t, e.CoversBrand("Lada"))
}
