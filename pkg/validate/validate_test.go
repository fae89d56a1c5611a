package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Armolas/ajo-savings/pkg/validate"
)

var (
	addrA = "0x" + strings.Repeat("aa", 20)
	addrB = "0x" + strings.Repeat("bb", 20)
)

func TestIsAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"Valid", addrA, true},
		{"ValidMixedCase", "0x" + strings.Repeat("Aa", 20), true},
		{"TooShort", "0x123", false},
		{"MissingPrefix", strings.Repeat("aa", 21), false},
		{"NonHex", "0x" + strings.Repeat("zz", 20), false},
		{"TooLong", addrA + "ff", false},
		{"Empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, validate.IsAddress(tc.in))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, addrA, validate.NormalizeAddress(" 0x"+strings.Repeat("AA", 20)+" "))
}

func validInput() *validate.CreateGroupInput {
	return &validate.CreateGroupInput{
		Name:               "Lagos Circle",
		TokenAddress:       "0x" + strings.Repeat("11", 20),
		ContributionAmount: "100",
		CycleWeeks:         1,
		Members:            []string{addrA, addrB},
	}
}

func TestCreateGroup(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		members, errs := validate.CreateGroup(validInput())
		require.Nil(t, errs)
		assert.Equal(t, []string{addrA, addrB}, members)
	})

	t.Run("NameTooShort", func(t *testing.T) {
		in := validInput()
		in.Name = "ab"
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "name")
	})

	t.Run("NameMissing", func(t *testing.T) {
		in := validInput()
		in.Name = "   "
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "name")
	})

	t.Run("BadTokenAddress", func(t *testing.T) {
		in := validInput()
		in.TokenAddress = "0x123"
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "token_address")
	})

	t.Run("MissingAmount", func(t *testing.T) {
		in := validInput()
		in.ContributionAmount = ""
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "contribution_amount")
	})

	t.Run("CycleWeeksOutOfRange", func(t *testing.T) {
		for _, weeks := range []int{0, -1, 53} {
			in := validInput()
			in.CycleWeeks = weeks
			_, errs := validate.CreateGroup(in)
			require.NotNil(t, errs, "weeks=%d", weeks)
			assert.Contains(t, errs, "cycle_weeks")
		}
	})

	t.Run("BadMemberAddress", func(t *testing.T) {
		in := validInput()
		in.Members = []string{addrA, "0x123"}
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "members")
	})

	t.Run("DuplicateMembersCaseInsensitive", func(t *testing.T) {
		in := validInput()
		in.Members = []string{addrA, "0x" + strings.Repeat("AA", 20)}
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "members")
	})

	t.Run("BlankMembersDropped", func(t *testing.T) {
		in := validInput()
		in.Members = []string{"", addrA, "  "}
		members, errs := validate.CreateGroup(in)
		require.Nil(t, errs)
		assert.Equal(t, []string{addrA}, members)
	})

	t.Run("NoMembers", func(t *testing.T) {
		in := validInput()
		in.Members = []string{"", "  "}
		_, errs := validate.CreateGroup(in)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "members")
	})

	t.Run("MembersNormalizedToLowercase", func(t *testing.T) {
		in := validInput()
		in.Members = []string{"0x" + strings.Repeat("AB", 20)}
		members, errs := validate.CreateGroup(in)
		require.Nil(t, errs)
		assert.Equal(t, []string{"0x" + strings.Repeat("ab", 20)}, members)
	})

	t.Run("AllFieldsBadReportedTogether", func(t *testing.T) {
		_, errs := validate.CreateGroup(&validate.CreateGroupInput{})
		require.NotNil(t, errs)
		for _, field := range []string{"name", "token_address", "contribution_amount", "cycle_weeks", "members"} {
			assert.Contains(t, errs, field)
		}
	})
}
