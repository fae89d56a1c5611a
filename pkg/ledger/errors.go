package ledger

import "errors"

// ErrNotFound is returned when a referenced group has no ledger record.
var ErrNotFound = errors.New("group not found")

// ErrNotAMember is returned when the acting address does not belong to the group.
var ErrNotAMember = errors.New("address is not a member of this group")

// ErrAlreadyContributed is returned when a member already paid into the current cycle.
var ErrAlreadyContributed = errors.New("already contributed this cycle")

// ErrNotRecipient is returned when a claim comes from anyone but the current cycle's recipient.
var ErrNotRecipient = errors.New("caller is not the current cycle's recipient")

// ErrNotFullyFunded is returned when a claim is attempted before every member has contributed.
var ErrNotFullyFunded = errors.New("cycle is not fully funded")

// ErrAlreadyClaimed is returned when the cycle's pool was already paid out.
var ErrAlreadyClaimed = errors.New("cycle pool already claimed")

// ErrLedger wraps opaque downstream failures: network faults, rejected
// transactions, insufficient token balance or allowance. Those checks belong
// to the ledger itself and are surfaced here without interpretation.
var ErrLedger = errors.New("ledger operation failed")
