package chain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a chain-level failure without pinning callers to a
// concrete error type, mirroring the taxonomy the verify/commit pipeline
// reports against (§7).
type Kind int

const (
	_ Kind = iota
	HeaderMismatch
	ConsensusInvalid
	TxFreshness
	TxSignatureInvalid
	TxConflict
	TrieVerify
	StateRootMismatch
	NotFound
	InvalidInput
	Internal
)

func (k Kind) String() string {
	switch k {
	case HeaderMismatch:
		return "header_mismatch"
	case ConsensusInvalid:
		return "consensus_invalid"
	case TxFreshness:
		return "tx_freshness"
	case TxSignatureInvalid:
		return "tx_signature_invalid"
	case TxConflict:
		return "tx_conflict"
	case TrieVerify:
		return "trie_verify"
	case StateRootMismatch:
		return "state_root_mismatch"
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error pairs a Kind with a wrapped cause, so callers can branch on Kind
// while %+v still prints the full pkg/errors stack trace.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.cause.Error() }

func (e *Error) Unwrap() error { return e.cause }

// Format prints the cause with %+v (and so its stack trace, if it carries
// one) for the %+v verb, and Error() for every other verb.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.Kind, e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Wrap annotates err with a Kind and msg, the one entry point every
// fallible step in §4.I/§4.J should route its failure through. It records
// no stack trace of its own; %+v shows one only when err already carries it.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: errors.WithMessage(err, msg)}
}

// Errorf builds a new Kind-tagged error carrying a stack trace.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}
