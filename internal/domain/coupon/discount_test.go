package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []Item {
	return []Item{
		{VariantID: 1, Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{VariantID: 2, Price: decimal.RequireFromString("25.00"), Quantity: 1},
	}
}

func unusedCard(rule Rule) *Card {
	return &Card{
		ID:      100,
		BuyerID: 7,
		Status:  CardUnused,
		Rule:    rule,
	}
}

func TestApply_Percentage(t *testing.T) {
	card := unusedCard(Rule{
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Description:  "10% off",
	})

	d, err := Apply(card, testItems(), time.Now())

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.50").Equal(d.Amount), "got %s", d.Amount)
	assert.Equal(t, "10% off", d.Description)
}

func TestApply_FixedCappedAtSubtotal(t *testing.T) {
	card := unusedCard(Rule{
		DiscountType: DiscountFixed,
		Value:        decimal.NewFromInt(500),
	})

	d, err := Apply(card, testItems(), time.Now())

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.00").Equal(d.Amount))
}

func TestApply_FreeLowest(t *testing.T) {
	card := unusedCard(Rule{DiscountType: DiscountFreeLowest})

	d, err := Apply(card, testItems(), time.Now())

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.00").Equal(d.Amount))
}

func TestApply_MaxDiscountCap(t *testing.T) {
	card := unusedCard(Rule{
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(50),
		MaxDiscount:  decimal.NewFromInt(5),
	})

	d, err := Apply(card, testItems(), time.Now())

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(d.Amount))
}

func TestApply_MinItemsNotMet(t *testing.T) {
	card := unusedCard(Rule{
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		MinItems:     5,
	})

	_, err := Apply(card, testItems(), time.Now())
	require.ErrorIs(t, err, ErrCardNotFound)
}

func TestApply_UsedCard(t *testing.T) {
	card := unusedCard(Rule{DiscountType: DiscountFixed, Value: decimal.NewFromInt(5)})
	card.Status = CardUsed

	_, err := Apply(card, testItems(), time.Now())
	require.ErrorIs(t, err, ErrCardUsed)
}

func TestApply_ExpiredByWindow(t *testing.T) {
	until := time.Now().Add(-time.Hour)
	card := unusedCard(Rule{DiscountType: DiscountFixed, Value: decimal.NewFromInt(5)})
	card.ValidUntil = &until

	_, err := Apply(card, testItems(), time.Now())
	require.ErrorIs(t, err, ErrCardExpired)
}

func TestApply_UnknownDiscountType(t *testing.T) {
	card := unusedCard(Rule{DiscountType: "mystery"})

	_, err := Apply(card, testItems(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported discount type")
}
