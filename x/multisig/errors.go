package multisig

import (
	"github.com/iov-one/quorum/errors"
)

// Multisig errors. Codes follow the declaration order of the program so
// that clients can map them back.
var (
	ErrInvalidThreshold         = errors.Register(6000, "Threshold must be <= the number of multisig wallet members")
	ErrDuplicateMembers         = errors.Register(6001, "Members of a multisig must be unique addresses")
	ErrTooFewMembers            = errors.Register(6002, "Not enough members with the given threshold")
	ErrNotAMember               = errors.Register(6003, "Not a current member of the multisig wallet")
	ErrInvalidMemberSetSeqno    = errors.Register(6004, "The multisig wallet does not match the transaction's member_set_seqno")
	ErrInvalidMultisigReference = errors.Register(6005, "The transaction does not belong to the provided multisig")
	ErrAlreadyApproved          = errors.Register(6006, "Signer already approved this transaction")
	ErrAlreadyUnapproved        = errors.Register(6007, "Signer already is marked as unapproved for this transaction.")
	ErrNotEnoughApprovals       = errors.Register(6008, "Transaction requires more approvals before it can be executed")
	ErrAlreadyExecuted          = errors.Register(6009, "Transaction already executed")
)
