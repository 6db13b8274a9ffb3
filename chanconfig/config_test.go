package chanconfig

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestReserveForFundingRounding(t *testing.T) {
	cases := []struct {
		funding btcutil.Amount
		reserve btcutil.Amount
	}{
		{99, 1},
		{100, 1},
		{101, 2},
		{200, 2},
	}

	for _, c := range cases {
		require.Equal(t, c.reserve, ReserveForFunding(c.funding))
	}
}

func baseConfig() (ChannelConfig, ChannelConfig, btcutil.Amount, Bounds) {
	fundingSat := btcutil.Amount(1_000_000)

	local := ChannelConfig{
		ChannelReserveSatoshis: ReserveForFunding(fundingSat),
	}
	remote := ChannelConfig{
		ChannelReserveSatoshis:   ReserveForFunding(fundingSat),
		MaxHTLCValueInFlightMSat: uint64(fundingSat) * 1000,
		HTLCMinimumMSat:          1,
		ToSelfDelay:              144,
		MaxAcceptedHTLCs:         30,
	}
	bounds := Bounds{
		MaxToSelfDelay:               2016,
		MinEffectiveHTLCCapacityMsat: 1,
		MinFeerate:                   253,
		MaxFeerate:                   10_000_000,
		MaxMinimumDepth:              144,
	}

	return local, remote, fundingSat, bounds
}

func TestValidateHappyPath(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	require.NoError(t, Validate(local, remote, fundingSat, bounds))
}

func TestValidateToSelfDelayTooLarge(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	bounds.MaxToSelfDelay = 1008
	remote.ToSelfDelay = 1009

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateReserveExceedsFunding(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	remote.ChannelReserveSatoshis = fundingSat + 1

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateMaxAcceptedHTLCsZero(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	remote.MaxAcceptedHTLCs = 0

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateMaxAcceptedHTLCsTooLarge(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	remote.MaxAcceptedHTLCs = 512

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateMaxAcceptedHTLCsBoundary(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	remote.MaxAcceptedHTLCs = 511

	require.NoError(t, Validate(local, remote, fundingSat, bounds))
}

func TestValidateHTLCMinimumTooLarge(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	remote.HTLCMinimumMSat = uint32(fundingSat) + 1

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateBelowMinEffectiveCapacity(t *testing.T) {
	local, remote, fundingSat, bounds := baseConfig()
	bounds.MinEffectiveHTLCCapacityMsat = uint64(fundingSat)*1000 + 1

	err := Validate(local, remote, fundingSat, bounds)
	require.Error(t, err)
}

func TestValidateLocalFundingAmount(t *testing.T) {
	require.NoError(t, ValidateLocalFunding(1_000_000, 0))
	require.Error(t, ValidateLocalFunding(1<<24, 0))
}

func TestValidateLocalFundingPush(t *testing.T) {
	require.NoError(t, ValidateLocalFunding(1000, 1_000_000))
	require.Error(t, ValidateLocalFunding(1000, 1_000_001))
}

func TestValidateFeerateBounds(t *testing.T) {
	bounds := Bounds{MinFeerate: 253, MaxFeerate: 10_000_000}

	require.NoError(t, ValidateFeerate(253, bounds))
	require.NoError(t, ValidateFeerate(10_000_000, bounds))
	require.Error(t, ValidateFeerate(252, bounds))
	require.Error(t, ValidateFeerate(10_000_001, bounds))
}

func TestValidateMinimumDepthBound(t *testing.T) {
	bounds := Bounds{MaxMinimumDepth: 10}

	require.NoError(t, ValidateMinimumDepth(10, bounds))
	require.Error(t, ValidateMinimumDepth(11, bounds))
}
