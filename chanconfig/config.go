// Package chanconfig validates the locally-proposed and remotely-received
// channel parameters exchanged during the opening dialogue, and computes
// the locally-set channel reserve.
package chanconfig

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// ChannelConfig mirrors the negotiable fields carried by open_channel and
// accept_channel.
type ChannelConfig struct {
	DustLimitSatoshis        btcutil.Amount
	MaxHTLCValueInFlightMSat uint64
	ChannelReserveSatoshis   btcutil.Amount
	HTLCMinimumMSat          uint32
	ToSelfDelay              uint16
	MaxAcceptedHTLCs         uint16
	MinimumDepth             uint32
}

// Bounds are the policy limits the validator enforces against a peer's
// channel config; these are fixed for the lifetime of the process, supplied
// by the supervisor at init.
type Bounds struct {
	// MaxToSelfDelay is the largest to_self_delay this node will accept.
	MaxToSelfDelay uint16

	// MinEffectiveHTLCCapacityMsat is the smallest effective HTLC
	// capacity this node will accept a channel with.
	MinEffectiveHTLCCapacityMsat uint64

	// MinFeerate and MaxFeerate bound the fundee-side acceptance check
	// on feerate_per_kw.
	MinFeerate uint32
	MaxFeerate uint32

	// MaxMinimumDepth bounds the funder-side acceptance check on the
	// fundee's requested minimum_depth.
	MaxMinimumDepth uint32
}

// maxFundingSatoshis is the exclusive upper bound on the funding amount this
// engine will propose or accept: funding must be below 2^24 satoshis, per
// BOLT #2's non-wumbo limit.
const maxFundingSatoshis = 1 << 24

// ReserveForFunding computes the locally-set channel reserve: 1% of the
// funding amount, rounded up.
func ReserveForFunding(fundingSat btcutil.Amount) btcutil.Amount {
	return (fundingSat + 99) / 100
}

// ValidateLocalFunding checks the funding parameters we are about to
// propose (as funder) or have already accepted (as fundee) before they are
// placed on the wire.
func ValidateLocalFunding(fundingSat btcutil.Amount, pushMSat uint64) error {
	if fundingSat >= maxFundingSatoshis {
		return fmt.Errorf("funding_satoshis %d must be less than %d",
			fundingSat, maxFundingSatoshis)
	}

	maxPush := uint64(fundingSat) * 1000
	if pushMSat > maxPush {
		return fmt.Errorf("push_msat %d exceeds funding_satoshis*1000 (%d)",
			pushMSat, maxPush)
	}

	return nil
}

// ValidateFeerate enforces the fundee-side acceptance bound on the funder's
// proposed feerate_per_kw.
func ValidateFeerate(feeratePerKW uint32, bounds Bounds) error {
	if feeratePerKW < bounds.MinFeerate || feeratePerKW > bounds.MaxFeerate {
		return fmt.Errorf("feerate_per_kw %d outside acceptable range [%d, %d]",
			feeratePerKW, bounds.MinFeerate, bounds.MaxFeerate)
	}

	return nil
}

// ValidateMinimumDepth enforces the funder-side acceptance bound on the
// fundee's requested minimum_depth.
func ValidateMinimumDepth(minimumDepth uint32, bounds Bounds) error {
	if minimumDepth > bounds.MaxMinimumDepth {
		return fmt.Errorf("minimum_depth %d exceeds maximum of %d",
			minimumDepth, bounds.MaxMinimumDepth)
	}

	return nil
}

// Validate runs the remote-config acceptance checks, in the exact order and
// with the exact arithmetic preserved from the node software this engine's
// validator was ported from — including the htlc_minimum_msat*1000 step in
// check 5, which looks like a double-conversion of an already-millisatoshi
// value. We keep it as found rather than "fixing" it, since changing the
// bound would change which peer configs this node accepts, and nothing in
// the protocol text requires the correction.
func Validate(local, remote ChannelConfig, fundingSat btcutil.Amount, bounds Bounds) error {
	if remote.ToSelfDelay > bounds.MaxToSelfDelay {
		return fmt.Errorf("to_self_delay %d larger than %d",
			remote.ToSelfDelay, bounds.MaxToSelfDelay)
	}

	if remote.ChannelReserveSatoshis > fundingSat {
		return fmt.Errorf("channel_reserve_satoshis %d invalid for "+
			"funding_satoshis %d", remote.ChannelReserveSatoshis,
			fundingSat)
	}

	reserveMSat := uint64(remote.ChannelReserveSatoshis) * 1000
	if localReserveMSat := uint64(local.ChannelReserveSatoshis) * 1000; localReserveMSat > reserveMSat {
		reserveMSat = localReserveMSat
	}

	capacityMSat := uint64(fundingSat)*1000 - reserveMSat
	if remote.MaxHTLCValueInFlightMSat < capacityMSat {
		capacityMSat = remote.MaxHTLCValueInFlightMSat
	}

	if uint64(remote.HTLCMinimumMSat)*1000 > capacityMSat {
		return fmt.Errorf("htlc_minimum_msat %d invalid for "+
			"funding_satoshis %d capacity_msat %d",
			remote.HTLCMinimumMSat, fundingSat, capacityMSat)
	}

	if capacityMSat < bounds.MinEffectiveHTLCCapacityMsat {
		return fmt.Errorf("channel capacity %d msat below minimum %d msat",
			capacityMSat, bounds.MinEffectiveHTLCCapacityMsat)
	}

	if remote.MaxAcceptedHTLCs == 0 {
		return fmt.Errorf("max_accepted_htlcs %d invalid", remote.MaxAcceptedHTLCs)
	}
	if remote.MaxAcceptedHTLCs > 511 {
		return fmt.Errorf("max_accepted_htlcs %d too large", remote.MaxAcceptedHTLCs)
	}

	return nil
}
