package errs

// Code is a short machine readable reason of a soft rejection.
type Code string

const (
	CodeOK                   Code = ""
	CodeAssetExists          Code = "asset already issued"
	CodeAssetNotFound        Code = "asset not found"
	CodeZeroValue            Code = "zero value"
	CodeNotReissuable        Code = "asset is not reissuable"
	CodeSupplyOverflow       Code = "supply overflow"
	CodeInsufficientBalance  Code = "insufficient balance"
	CodeInsufficientAllow    Code = "insufficient allowance"
	CodeSelfTransfer         Code = "transfer to self"
	CodeSelfApprove          Code = "approve to self"
	CodeOnlyOwner            Code = "only owner"
	CodeSameOwner            Code = "already an owner"
	CodeAssetLocked          Code = "asset is locked"
	CodeICAPNotResolved      Code = "ICAP code is not resolved"
	CodeICAPSymbolMismatch   Code = "ICAP symbol mismatch"
	CodeInvalidICAP          Code = "invalid ICAP code"
	CodeAlreadyInitialized   Code = "already initialized"
	CodeEmptyVersion         Code = "empty version"
	CodeProposalPending      Code = "upgrade already proposed"
	CodeNoProposal           Code = "no upgrade proposed"
	CodeFreezePeriod         Code = "freeze period is not over"
	CodeAlreadyOptedOut      Code = "already opted out"
	CodeNotOptedOut          Code = "not opted out"
	CodeNoVersion            Code = "no version"
	CodeAccessDenied         Code = "access denied"
	CodeTransferNotAllowed   Code = "transfer is not allowed"
	CodeAlreadyRegistered    Code = "already registered"
	CodeNotRegistered        Code = "not registered"
	CodeInvalidArgument      Code = "invalid argument"
	CodeInsufficientProxyBal Code = "insufficient gateway balance"
)

// Outcome reports the result of an operation that did not fail hard.
// A rejected outcome leaves the state untouched.
type Outcome struct {
	Accepted bool
	Code     Code
}

func Accepted() Outcome {
	return Outcome{Accepted: true}
}

func Rejected(code Code) Outcome {
	return Outcome{Code: code}
}

func (o Outcome) String() string {
	if o.Accepted {
		return "accepted"
	}
	return "rejected: " + string(o.Code)
}
