// Package memory provides an in-process implementation of the savings ledger
// with the same state-transition rules as the on-chain contract: cycle
// advancement from elapsed time, one contribution per member per cycle, and a
// single claim per cycle payable to the rotation's recipient. It backs
// development mode and tests; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
)

type contribKey struct {
	groupID uint64
	member  string
	cycle   uint64
}

type cycleKey struct {
	groupID uint64
	cycle   uint64
}

type group struct {
	record  models.GroupRecord
	members []string
}

// Ledger is an in-memory savings ledger. Safe for concurrent use.
type Ledger struct {
	mu            sync.RWMutex
	now           func() time.Time
	groups        []*group
	contributions map[contribKey]*big.Int
	balances      map[cycleKey]*big.Int
	claims        map[cycleKey]bool
	tokens        map[string]*models.TokenMetadata
}

// New creates an empty in-memory ledger using the real clock.
func New() *Ledger {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty ledger with an injectable clock, so tests can
// move a group through its cycles without sleeping.
func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		now:           now,
		contributions: make(map[contribKey]*big.Int),
		balances:      make(map[cycleKey]*big.Int),
		claims:        make(map[cycleKey]bool),
		tokens:        make(map[string]*models.TokenMetadata),
	}
}

// Make sure we conform to the interface
var _ ledger.Ledger = (*Ledger)(nil)

// RegisterToken seeds metadata for a token address. Unregistered tokens
// resolve to the documented defaults, mirroring a token without metadata
// views on chain.
func (l *Ledger) RegisterToken(meta *models.TokenMetadata) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[normalize(meta.Address)] = meta
}

func normalize(addr string) string { return strings.ToLower(addr) }

func (l *Ledger) groupLocked(groupID uint64) (*group, error) {
	if groupID >= uint64(len(l.groups)) {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrNotFound, groupID)
	}
	return l.groups[groupID], nil
}

// currentCycleLocked derives the group's current cycle index from the clock,
// exactly as the contract derives it from block time.
func (l *Ledger) currentCycleLocked(g *group) uint64 {
	period := time.Duration(g.record.CyclePeriodSeconds) * time.Second
	elapsed := l.now().Sub(g.record.StartTime)
	if elapsed < 0 || period <= 0 {
		return 0
	}
	return uint64(elapsed / period)
}

// GroupCount returns the number of groups created so far.
func (l *Ledger) GroupCount(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.groups)), nil
}

// GroupRecord returns the raw record of a group.
func (l *Ledger) GroupRecord(_ context.Context, groupID uint64) (*models.GroupRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return nil, err
	}
	record := g.record
	record.CurrentCycle = l.currentCycleLocked(g)
	record.ContributionAmount = new(big.Int).Set(g.record.ContributionAmount)
	return &record, nil
}

// Members returns the ordered member list of a group.
func (l *Ledger) Members(_ context.Context, groupID uint64) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), g.members...), nil
}

// IsMember reports whether an address belongs to a group.
func (l *Ledger) IsMember(_ context.Context, groupID uint64, address string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return false, err
	}
	return g.memberIndex(address) >= 0, nil
}

func (g *group) memberIndex(address string) int {
	address = normalize(address)
	for i, m := range g.members {
		if normalize(m) == address {
			return i
		}
	}
	return -1
}

// GroupsForAddress returns the IDs of every group an address belongs to.
func (l *Ledger) GroupsForAddress(_ context.Context, address string) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []uint64
	for id, g := range l.groups {
		if g.memberIndex(address) >= 0 {
			ids = append(ids, uint64(id))
		}
	}
	return ids, nil
}

// HasContributed reports whether a member paid into a cycle.
func (l *Ledger) HasContributed(_ context.Context, groupID uint64, address string, cycleIdx uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, err := l.groupLocked(groupID); err != nil {
		return false, err
	}
	_, ok := l.contributions[contribKey{groupID, normalize(address), cycleIdx}]
	return ok, nil
}

// ContributionPaid returns the amount a member paid into a cycle, zero if none.
func (l *Ledger) ContributionPaid(_ context.Context, groupID uint64, address string, cycleIdx uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, err := l.groupLocked(groupID); err != nil {
		return nil, err
	}
	if paid, ok := l.contributions[contribKey{groupID, normalize(address), cycleIdx}]; ok {
		return new(big.Int).Set(paid), nil
	}
	return big.NewInt(0), nil
}

// CycleBalance returns the pooled balance of the group's current cycle.
// A claimed cycle reads as zero.
func (l *Ledger) CycleBalance(_ context.Context, groupID uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return nil, err
	}
	key := cycleKey{groupID, l.currentCycleLocked(g)}
	if bal, ok := l.balances[key]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// HasClaimed reports whether a cycle's pool was already paid out.
func (l *Ledger) HasClaimed(_ context.Context, groupID uint64, cycleIdx uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, err := l.groupLocked(groupID); err != nil {
		return false, err
	}
	return l.claims[cycleKey{groupID, cycleIdx}], nil
}

// TokenMetadata resolves token metadata, degrading to defaults for tokens
// that were never registered.
func (l *Ledger) TokenMetadata(_ context.Context, tokenAddress string) (*models.TokenMetadata, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if meta, ok := l.tokens[normalize(tokenAddress)]; ok {
		copied := *meta
		return &copied, nil
	}
	return &models.TokenMetadata{
		Address:  tokenAddress,
		Symbol:   models.DefaultTokenSymbol,
		Decimals: models.DefaultTokenDecimals,
	}, nil
}

// CreateGroup registers a new group and returns its ID. The member list and
// amounts are assumed pre-validated at the form boundary; the ledger still
// rejects structurally impossible groups.
func (l *Ledger) CreateGroup(_ context.Context, params *models.CreateGroupParams) (uint64, error) {
	if len(params.Members) == 0 {
		return 0, fmt.Errorf("%w: create group: no members", ledger.ErrLedger)
	}
	if params.ContributionAmount == nil || params.ContributionAmount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: create group: non-positive amount", ledger.ErrLedger)
	}
	if params.CycleWeeks == 0 {
		return 0, fmt.Errorf("%w: create group: zero cycle period", ledger.ErrLedger)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	id := uint64(len(l.groups))
	l.groups = append(l.groups, &group{
		record: models.GroupRecord{
			Name:               params.Name,
			TokenAddress:       normalize(params.TokenAddress),
			ContributionAmount: new(big.Int).Set(params.ContributionAmount),
			CyclePeriodSeconds: params.CycleWeeks * models.SecondsPerWeek,
			StartTime:          l.now(),
		},
		members: append([]string(nil), params.Members...),
	})
	return id, nil
}

// Contribute records a member's payment into the group's current cycle.
func (l *Ledger) Contribute(_ context.Context, from string, groupID uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return "", err
	}
	if g.memberIndex(from) < 0 {
		return "", fmt.Errorf("%w: %s in group %d", ledger.ErrNotAMember, from, groupID)
	}

	cycleIdx := l.currentCycleLocked(g)
	ck := contribKey{groupID, normalize(from), cycleIdx}
	if _, dup := l.contributions[ck]; dup {
		return "", fmt.Errorf("%w: %s in cycle %d", ledger.ErrAlreadyContributed, from, cycleIdx)
	}

	paid := new(big.Int).Set(g.record.ContributionAmount)
	l.contributions[ck] = paid

	bk := cycleKey{groupID, cycleIdx}
	bal, ok := l.balances[bk]
	if !ok {
		bal = big.NewInt(0)
		l.balances[bk] = bal
	}
	bal.Add(bal, paid)

	return "mem-" + uuid.NewString(), nil
}

// ClaimPool pays the current cycle's pool out to its recipient and marks the
// cycle claimed. Claimed is terminal; the balance reads as zero afterwards.
func (l *Ledger) ClaimPool(_ context.Context, from string, groupID uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, err := l.groupLocked(groupID)
	if err != nil {
		return "", err
	}

	cycleIdx := l.currentCycleLocked(g)
	recipient := g.members[cycleIdx%uint64(len(g.members))]
	if normalize(from) != normalize(recipient) {
		return "", fmt.Errorf("%w: cycle %d pays out to %s", ledger.ErrNotRecipient, cycleIdx, recipient)
	}

	ck := cycleKey{groupID, cycleIdx}
	if l.claims[ck] {
		return "", fmt.Errorf("%w: cycle %d of group %d", ledger.ErrAlreadyClaimed, cycleIdx, groupID)
	}

	target := new(big.Int).Mul(g.record.ContributionAmount, big.NewInt(int64(len(g.members))))
	bal := l.balances[ck]
	if bal == nil || bal.Cmp(target) != 0 {
		return "", fmt.Errorf("%w: cycle %d of group %d", ledger.ErrNotFullyFunded, cycleIdx, groupID)
	}

	l.claims[ck] = true
	l.balances[ck] = big.NewInt(0)

	return "mem-" + uuid.NewString(), nil
}
