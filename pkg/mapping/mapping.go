package mapping

import (
	"github.com/Armolas/ajo-savings/pkg/amount"
	"github.com/Armolas/ajo-savings/pkg/api"
	"github.com/Armolas/ajo-savings/pkg/models"
	"github.com/Armolas/ajo-savings/pkg/repository"
	"github.com/Armolas/ajo-savings/pkg/validate"
)

// ToApiGroupSummary converts a domain Group to an API listing row.
func ToApiGroupSummary(g *models.Group) *api.GroupSummary {
	return &api.GroupSummary{
		GroupID:            g.ID,
		Name:               g.Name,
		TokenAddress:       g.TokenAddress,
		ContributionAmount: g.ContributionAmount.String(),
		CyclePeriodSeconds: uint64(g.CyclePeriod.Seconds()),
		StartTime:          g.StartTime,
		MemberCount:        g.MemberCount(),
	}
}

// ToApiToken converts token metadata to its API form.
func ToApiToken(meta *models.TokenMetadata) api.Token {
	return api.Token{
		Address:  meta.Address,
		Name:     meta.Name,
		Symbol:   meta.Symbol,
		Decimals: meta.Decimals,
	}
}

// ToApiCycleStatus converts a derived cycle status to its API form.
func ToApiCycleStatus(cs *models.CycleStatus) api.CycleStatus {
	return api.CycleStatus{
		Index:        cs.Index,
		Recipient:    cs.Recipient,
		WindowStart:  cs.WindowStart,
		WindowEnd:    cs.WindowEnd,
		TimeProgress: cs.TimeProgress,
	}
}

// ToApiFundingStatus converts a derived funding status to its API form,
// rendering the raw amounts both as exact unit strings and scaled for display.
func ToApiFundingStatus(fs *models.FundingStatus, decimals uint8) api.FundingStatus {
	return api.FundingStatus{
		CycleIndex:      fs.CycleIndex,
		Total:           fs.Total.String(),
		TotalFormatted:  amount.Format(fs.Total, decimals),
		Target:          fs.Target.String(),
		TargetFormatted: amount.Format(fs.Target, decimals),
		Percent:         fs.Percent,
		FullyFunded:     fs.FullyFunded,
		Claimed:         fs.Claimed,
	}
}

// ToApiGroupDetail joins the repository view with the derived cycle and
// funding state into the full API group detail.
func ToApiGroupDetail(view *repository.GroupView, cs *models.CycleStatus, fs *models.FundingStatus) *api.GroupDetail {
	g := view.Group
	return &api.GroupDetail{
		GroupID:            g.ID,
		Name:               g.Name,
		Token:              ToApiToken(view.Token),
		ContributionAmount: g.ContributionAmount.String(),
		AmountFormatted:    amount.Format(g.ContributionAmount, view.Token.Decimals),
		CyclePeriodSeconds: uint64(g.CyclePeriod.Seconds()),
		StartTime:          g.StartTime,
		Members:            g.Members,
		Cycle:              ToApiCycleStatus(cs),
		Funding:            ToApiFundingStatus(fs, view.Token.Decimals),
	}
}

// ToDomainCreateGroupInput converts the create-group request body into the
// validation layer's input form.
func ToDomainCreateGroupInput(in *api.NewGroup) *validate.CreateGroupInput {
	return &validate.CreateGroupInput{
		Name:               in.Name,
		TokenAddress:       in.TokenAddress,
		ContributionAmount: in.ContributionAmount,
		CycleWeeks:         in.CycleWeeks,
		Members:            in.Members,
	}
}
