package mapping_test

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Armolas/ajo-savings/pkg/mapping"
	"github.com/Armolas/ajo-savings/pkg/models"
	"github.com/Armolas/ajo-savings/pkg/repository"
)

var (
	addrA    = "0x" + strings.Repeat("aa", 20)
	addrB    = "0x" + strings.Repeat("bb", 20)
	tokenUSD = "0x" + strings.Repeat("11", 20)
)

func domainGroup() *models.Group {
	return &models.Group{
		ID:                 4,
		Name:               "Weekly Circle",
		TokenAddress:       tokenUSD,
		ContributionAmount: big.NewInt(1500000),
		CyclePeriod:        7 * 24 * time.Hour,
		StartTime:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Members:            []string{addrA, addrB},
	}
}

func TestToApiGroupSummary(t *testing.T) {
	summary := mapping.ToApiGroupSummary(domainGroup())
	assert.Equal(t, uint64(4), summary.GroupID)
	assert.Equal(t, "1500000", summary.ContributionAmount)
	assert.Equal(t, uint64(604800), summary.CyclePeriodSeconds)
	assert.Equal(t, 2, summary.MemberCount)
}

func TestToApiGroupDetail(t *testing.T) {
	g := domainGroup()
	view := &repository.GroupView{
		Group: g,
		Token: &models.TokenMetadata{
			Address:  tokenUSD,
			Symbol:   "mUSD",
			Decimals: 6,
		},
		Balance: big.NewInt(1500000),
	}
	cs := &models.CycleStatus{
		Index:     0,
		Recipient: addrA,
	}
	fs := &models.FundingStatus{
		CycleIndex: 0,
		Total:      big.NewInt(1500000),
		Target:     big.NewInt(3000000),
		Percent:    50,
	}

	detail := mapping.ToApiGroupDetail(view, cs, fs)
	assert.Equal(t, "1.5", detail.AmountFormatted, "formatted with the token's decimals")
	assert.Equal(t, "mUSD", detail.Token.Symbol)
	assert.Equal(t, "1500000", detail.Funding.Total)
	assert.Equal(t, "1.5", detail.Funding.TotalFormatted)
	assert.Equal(t, "3", detail.Funding.TargetFormatted)
	assert.Equal(t, addrA, detail.Cycle.Recipient)
}
