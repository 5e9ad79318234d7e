package runtime

import (
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

// OriginKind classifies who is dispatching a call.
type OriginKind string

const (
	// OriginSigned is an account whose signature the host has verified.
	OriginSigned OriginKind = "signed"

	// OriginRoot is the privileged host origin.
	OriginRoot OriginKind = "root"

	// OriginNone is an unsigned origin.
	OriginNone OriginKind = "none"
)

// Origin is the already-authenticated source of a call. Signature
// verification happens before an Origin is constructed.
type Origin struct {
	Kind    OriginKind
	Account ir.AccountID
}

// Signed returns the origin of a verified account.
func Signed(account ir.AccountID) Origin {
	return Origin{Kind: OriginSigned, Account: account}
}

// Root returns the privileged host origin.
func Root() Origin {
	return Origin{Kind: OriginRoot}
}

// None returns the unsigned origin.
func None() Origin {
	return Origin{Kind: OriginNone}
}

// EnsureSigned returns the caller account of a signed origin.
// Root and None origins, and a signed origin with an empty account, fail
// with a BAD_ORIGIN RuntimeError.
func (o Origin) EnsureSigned() (ir.AccountID, error) {
	if o.Kind != OriginSigned {
		return "", NewBadOriginError(fmt.Sprintf("%s origin cannot dispatch book calls", o.kind()))
	}
	if o.Account == "" {
		return "", NewBadOriginError("signed origin has no account")
	}
	return o.Account, nil
}

func (o Origin) kind() OriginKind {
	if o.Kind == "" {
		return OriginNone
	}
	return o.Kind
}

// String renders the origin for logs.
func (o Origin) String() string {
	if o.Kind == OriginSigned {
		return fmt.Sprintf("signed(%s)", o.Account)
	}
	return string(o.kind())
}
