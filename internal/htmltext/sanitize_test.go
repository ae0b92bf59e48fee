package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLettersOnlyTrim(t *testing.T) {
	cases := map[string]string{
		"Failurewood Hills (6 - 0 - 2)": "Failurewood Hills",
		"Alpha Beta,":                   "Alpha Beta",
		"OnlyLetters":                   "OnlyLetters",
		"Team 2":                        "Team",
		"Team-Name":                     "Team",
		"  Spaced\t Out  ":              "Spaced Out",
		"":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, LettersOnlyTrim(in), "input %q", in)
	}
}

func TestStripRecordSuffix(t *testing.T) {
	assert.Equal(t, "Team", StripRecordSuffix("Team (6 - 0 - 2)"))
	assert.Equal(t, "Team (Champions)", StripRecordSuffix("Team (Champions)"))
	assert.Equal(t, "Team (12)", StripRecordSuffix("Team (12)"))
	assert.Equal(t, "(1-2)", StripRecordSuffix("(1-2)"))
}

func TestStripBracketTags(t *testing.T) {
	assert.Equal(t, "Name", StripBracketTags("[CAPTAIN] Name [out]"))
	assert.Equal(t, "Name #7 Orc", StripBracketTags("Name #7 Orc [unavailable]"))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \n b c  "))
}

func TestSanitizeTeamFilename(t *testing.T) {
	assert.Equal(t, "Eduslum_Marching_Band", SanitizeTeamFilename("Eduslum  Marching Band", 31))
	assert.Equal(t, "Mud-Dogs", SanitizeTeamFilename("  Mud-Dogs!  ", 2))
	assert.Equal(t, "a_b", SanitizeTeamFilename("a__ _b", 2))
	assert.Equal(t, "team_7", SanitizeTeamFilename("???", 7))
}

func TestDigitHelpers(t *testing.T) {
	d, rest := LeadingDigits("123 to 9")
	assert.Equal(t, "123", d)
	assert.Equal(t, " to 9", rest)

	d, rest = LeadingDigits("x1")
	assert.Equal(t, "", d)
	assert.Equal(t, "x1", rest)

	assert.Equal(t, "14", FirstDigitRun(" - 14 and 3"))
	assert.Equal(t, "", FirstDigitRun("none"))
	assert.Equal(t, "86", DigitsOnly(" 8 - 6 "))
}
