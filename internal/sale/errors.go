package sale

import "errors"

// Kind classifies why a call was rejected.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthorization
	KindConfiguration
	KindTiming
	KindAuthentication
	KindQuota
	KindPayment
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindAuthorization:  "authorization",
	KindConfiguration:  "configuration",
	KindTiming:         "timing",
	KindAuthentication: "authentication",
	KindQuota:          "quota",
	KindPayment:        "payment",
	KindNotFound:       "not-found",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Error is a rejected call. Reason matches the revert string of the
// deployed contract so callers can compare against on-chain behaviour.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Rejections. Compare with errors.Is.
var (
	ErrNotOwner         = newError(KindAuthorization, "Ownable: caller is not the owner")
	ErrZeroOwner        = newError(KindConfiguration, "Ownable: new owner is the zero address")
	ErrBatchSize        = newError(KindConfiguration, "can only mint a multiple of the maxBatchSize")
	ErrDevMintCap       = newError(KindConfiguration, "too many already minted before dev mint")
	ErrMaxSupply        = newError(KindQuota, "reached max supply")
	ErrZeroQuantity     = newError(KindQuota, "MintZeroQuantity")
	ErrWhitelistClosed  = newError(KindTiming, "whitelist sale has not begun yet")
	ErrPublicClosed     = newError(KindTiming, "sale has not begun yet")
	ErrWrongSig         = newError(KindAuthentication, "wrong sig")
	ErrQuota            = newError(KindQuota, "can not mint this many")
	ErrUnderpaid        = newError(KindPayment, "Need to send more ETH.")
	ErrTransferFailed   = newError(KindPayment, "Transfer failed.")
	ErrNothingOwed      = newError(KindNotFound, "no refund owed")
	ErrNonexistentURI   = newError(KindNotFound, "URIQueryForNonexistentToken")
	ErrNonexistentOwner = newError(KindNotFound, "OwnerQueryForNonexistentToken")
)

// KindOf returns the Kind of err, or KindUnknown when err is not a
// rejection raised by the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
