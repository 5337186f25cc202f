package model

import (
	"fmt"
	"strings"
)

// Class is the instrument class, which selects the provider chains.
type Class string

const (
	ClassCrypto Class = "crypto"
	ClassForex  Class = "forex"
	ClassOTC    Class = "otc"
)

// OTCPrefix marks an OTC instrument derived from a forex pair, e.g. OTC_EURUSD.
const OTCPrefix = "OTC_"

// CryptoQuoteSuffix is the quote currency every crypto instrument is priced in.
const CryptoQuoteSuffix = "USDT"

// Instrument is a tradable pair identifier split into its parts.
type Instrument struct {
	ID    string
	Base  string
	Quote string
	Class Class
}

// ParseInstrument classifies an instrument id.
//
//	BTCUSDT    -> crypto, BTC / USDT
//	EURUSD     -> forex,  EUR / USD
//	OTC_EURUSD -> otc,    EUR / USD
func ParseInstrument(id string) (Instrument, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	switch {
	case strings.HasPrefix(id, OTCPrefix):
		base, err := ParseInstrument(strings.TrimPrefix(id, OTCPrefix))
		if err != nil {
			return Instrument{}, fmt.Errorf("otc instrument %q: %w", id, err)
		}
		if base.Class != ClassForex {
			return Instrument{}, fmt.Errorf("otc instrument %q: base must be a forex pair", id)
		}
		return Instrument{ID: id, Base: base.Base, Quote: base.Quote, Class: ClassOTC}, nil
	case strings.Contains(id, CryptoQuoteSuffix):
		base := strings.TrimSuffix(id, CryptoQuoteSuffix)
		if base == "" || base == id {
			return Instrument{}, fmt.Errorf("crypto instrument %q: missing base asset", id)
		}
		return Instrument{ID: id, Base: base, Quote: CryptoQuoteSuffix, Class: ClassCrypto}, nil
	case len(id) == 6:
		return Instrument{ID: id, Base: id[:3], Quote: id[3:], Class: ClassForex}, nil
	default:
		return Instrument{}, fmt.Errorf("unrecognised instrument %q", id)
	}
}

// BaseForex returns the forex pair an OTC instrument is derived from.
func (i Instrument) BaseForex() Instrument {
	if i.Class != ClassOTC {
		return i
	}
	return Instrument{ID: strings.TrimPrefix(i.ID, OTCPrefix), Base: i.Base, Quote: i.Quote, Class: ClassForex}
}

func (i Instrument) String() string { return i.ID }
