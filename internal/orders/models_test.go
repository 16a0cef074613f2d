package orders

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtotalSumsPriceTimesQuantity(t *testing.T) {
	items := []LineItem{
		{ProductID: 1, ProductName: "Runner", Quantity: 2, Price: decimal.NewFromInt(500)},
		{ProductID: 2, ProductName: "Trail", Quantity: 1, Price: decimal.NewFromInt(1500)},
	}
	assert.True(t, Subtotal(items).Equal(decimal.NewFromInt(2500)))
}

func TestSnapshotPriceIsIndependentOfCatalog(t *testing.T) {
	// The snapshot is serialized at order creation; decoding it later must
	// reproduce the price it was written with, whatever the catalog says now.
	items := []LineItem{{ProductID: 7, ProductName: "Classic", Quantity: 1, Price: decimal.RequireFromString("1299.00")}}
	raw, err := json.Marshal(items)
	require.NoError(t, err)

	var decoded []LineItem
	require.NoError(t, decodeLineItems(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].Price.Equal(decimal.RequireFromString("1299.00")))
}

func TestDecodeLineItemsRejectsInvalidQuantity(t *testing.T) {
	raw := []byte(`[{"product_id":1,"product_name":"x","quantity":0,"price":"10"}]`)
	var decoded []LineItem
	assert.Error(t, decodeLineItems(raw, &decoded))
}

func TestDecodeLineItemsEmptyBlob(t *testing.T) {
	var decoded []LineItem
	require.NoError(t, decodeLineItems(nil, &decoded))
	assert.Empty(t, decoded)
}
