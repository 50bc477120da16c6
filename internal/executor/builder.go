package executor

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/feed"
)

// swap instruction discriminators per venue
const (
	raydiumSwapDiscriminator = 0x09
	pumpFunBuyDiscriminator  = 0x66
	orcaSwapDiscriminator    = 0x01
)

// buildLegMessage serializes one leg into an unsigned transaction message:
// blockhash, payer, venue program, then the instruction payload with mints
// and little-endian amounts. The signer wraps it with the signature.
func buildLegMessage(leg *domain.Leg, payer, blockhash string) ([]byte, error) {
	var msg []byte

	hashBytes, err := base58.Decode(blockhash)
	if err != nil {
		return nil, err
	}
	payerBytes, err := base58.Decode(payer)
	if err != nil {
		return nil, err
	}
	programBytes, err := base58.Decode(programFor(leg.Venue))
	if err != nil {
		return nil, err
	}

	msg = append(msg, hashBytes...)
	msg = append(msg, payerBytes...)
	msg = append(msg, programBytes...)

	data := make([]byte, 0, 81)
	data = append(data, discriminatorFor(leg.Venue))
	inBytes, err := base58.Decode(leg.TokenIn)
	if err != nil {
		return nil, err
	}
	outBytes, err := base58.Decode(leg.TokenOut)
	if err != nil {
		return nil, err
	}
	data = append(data, inBytes...)
	data = append(data, outBytes...)
	data = binary.LittleEndian.AppendUint64(data, uint64(leg.AmountIn))
	data = binary.LittleEndian.AppendUint64(data, uint64(leg.MinOut))

	return append(msg, data...), nil
}

func programFor(venue string) string {
	switch venue {
	case "raydium":
		return feed.RaydiumAMMV4
	case "pumpfun":
		return feed.PumpFun
	case "orca":
		return feed.OrcaWhirlpool
	}
	return feed.RaydiumAMMV4
}

func discriminatorFor(venue string) byte {
	switch venue {
	case "pumpfun":
		return pumpFunBuyDiscriminator
	case "orca":
		return orcaSwapDiscriminator
	}
	return raydiumSwapDiscriminator
}
