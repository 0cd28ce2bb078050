package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVictims() []Victim {
	return []Victim{
		{ID: int64Ptr(1), EnglishName: strPtr("ahmad ali"), Sex: SexMale, Age: floatPtr(0)},
		{ID: int64Ptr(2), EnglishName: strPtr("AHMAD Hassan"), Sex: SexMale, Age: floatPtr(10)},
		{ID: int64Ptr(3), EnglishName: strPtr("Sara Omar"), Sex: SexFemale, Age: floatPtr(20)},
		{ID: int64Ptr(4), EnglishName: strPtr("sara Khalil"), Sex: SexFemale},
		{ID: int64Ptr(5), EnglishName: strPtr("Omar"), Sex: SexUnknown},
		{ID: int64Ptr(6)},
	}
}

func TestFilterVictims(t *testing.T) {
	victims := sampleVictims()

	assert.Len(t, FilterVictims(victims, VictimFilter{}), 6)
	assert.Len(t, FilterVictims(victims, VictimFilter{Sex: SexUnknown}), 6, "unknown is not a filter value")

	females := FilterVictims(victims, VictimFilter{Sex: SexFemale})
	require.Len(t, females, 2)
	assert.Equal(t, int64(3), *females[0].ID)

	omars := FilterVictims(victims, VictimFilter{Query: "OMAR"})
	require.Len(t, omars, 2)
	assert.Equal(t, int64(3), *omars[0].ID)
	assert.Equal(t, int64(5), *omars[1].ID)

	both := FilterVictims(victims, VictimFilter{Sex: SexMale, Query: "hassan"})
	require.Len(t, both, 1)
	assert.Equal(t, int64(2), *both[0].ID)
}

func TestTopFirstNames(t *testing.T) {
	got := TopFirstNames(sampleVictims(), 2)
	assert.Equal(t, []NameCount{
		{Name: "Ahmad", Count: 2},
		{Name: "Sara", Count: 2},
	}, got)

	all := TopFirstNames(sampleVictims(), 10)
	require.Len(t, all, 3)
	assert.Equal(t, NameCount{Name: "Omar", Count: 1}, all[2])
}

func TestAgeHistogram(t *testing.T) {
	bins := AgeHistogram(sampleVictims(), 2)
	require.Len(t, bins, 2)
	assert.Equal(t, AgeBin{Lower: 0, Upper: 10, Count: 1}, bins[0])
	assert.Equal(t, AgeBin{Lower: 10, Upper: 20, Count: 2}, bins[1])
}

func TestAgeHistogram_Degenerate(t *testing.T) {
	assert.Nil(t, AgeHistogram([]Victim{{ID: int64Ptr(1)}}, 5))

	single := AgeHistogram([]Victim{{Age: floatPtr(7)}, {Age: floatPtr(7)}}, 5)
	require.Len(t, single, 1)
	assert.Equal(t, AgeBin{Lower: 7, Upper: 7, Count: 2}, single[0])
}
