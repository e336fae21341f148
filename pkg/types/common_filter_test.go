package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFilters(t *testing.T) {
	allowed := []string{"state", "order_id"}

	require.NoError(t, ValidateFilters([]*CommonFilter{{Field: "state", Operator: CommonFilterOperatorEq, Values: []any{"Settled"}}}, allowed))
	require.NoError(t, ValidateFilters(nil, allowed))

	err := ValidateFilters([]*CommonFilter{{Field: "state; drop table payment", Operator: CommonFilterOperatorEq, Values: []any{"x"}}}, allowed)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not allowed")

	err = ValidateFilters([]*CommonFilter{{Field: "order_id", Operator: CommonFilterOperatorIn}}, allowed)
	require.Error(t, err)
}

func TestScanRequest_Normalize(t *testing.T) {
	allowed := []string{"state", "created_at"}

	req := &ScanRequest{From: -3}
	require.NoError(t, req.Normalize(allowed))
	require.Equal(t, 10, req.Size)
	require.Equal(t, 0, req.From)

	req = &ScanRequest{SortBy: "password"}
	require.Error(t, req.Normalize(allowed))

	req = &ScanRequest{Filters: []*CommonFilter{{Field: "state", Operator: CommonFilterOperatorEq, Values: []any{"Settled"}}}}
	require.NoError(t, req.Normalize(allowed))
}
