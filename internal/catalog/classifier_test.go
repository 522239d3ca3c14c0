package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glowupstudio/booking-platform/internal/acuity"
)

func svc(id int, name string) acuity.AppointmentType {
	return acuity.AppointmentType{ID: id, Name: name, Price: "10.00", DurationMinutes: 30}
}

func testCatalog() []acuity.AppointmentType {
	return []acuity.AppointmentType{
		svc(1, "Brow Wax"),
		svc(2, "Men's Brow Wax"),
		svc(3, "Brazilian Wax"),
		svc(4, "Male Brazilian Wax"),
		svc(5, "Full Leg Wax"),
		svc(6, "Underarm Wax"),
		svc(7, "Gentleman's Back Wax"),
		svc(8, "Lip & Chin Wax"),
		svc(9, "Women's Facial"),
		svc(10, "Female Bikini Line"),
	}
}

func ids(types []acuity.AppointmentType) []int {
	out := make([]int, 0, len(types))
	for _, t := range types {
		out = append(out, t.ID)
	}
	return out
}

func TestClassifyFemaleFace(t *testing.T) {
	got := Classify(testCatalog(), GenderFemale, AreaFace)
	assert.Equal(t, []int{1, 8, 9}, ids(got))
}

func TestClassifyMaleBuckets(t *testing.T) {
	assert.Equal(t, []int{2}, ids(Classify(testCatalog(), GenderMale, AreaFace)))
	assert.Equal(t, []int{7}, ids(Classify(testCatalog(), GenderMale, AreaMid)))
	assert.Equal(t, []int{4}, ids(Classify(testCatalog(), GenderMale, AreaLow)))
}

func TestClassifyWomensServicesAreNotMale(t *testing.T) {
	// "women's" contains "men's" and "female" contains "male" as raw
	// substrings; word-start matching keeps them out of the male bucket.
	catalog := []acuity.AppointmentType{svc(1, "Women's Leg Wax"), svc(2, "Female Bikini")}
	assert.Empty(t, Classify(catalog, GenderMale, AreaLow))
	assert.Equal(t, []int{1, 2}, ids(Classify(catalog, GenderFemale, AreaLow)))
}

func TestClassifyGenderBucketsDisjoint(t *testing.T) {
	catalog := testCatalog()
	for _, area := range []BodyArea{AreaFace, AreaMid, AreaLow} {
		male := map[int]bool{}
		for _, s := range Classify(catalog, GenderMale, area) {
			male[s.ID] = true
		}
		for _, s := range Classify(catalog, GenderFemale, area) {
			assert.Falsef(t, male[s.ID], "service %d in both buckets for area %s", s.ID, area)
		}
	}
}

func TestClassifyAreaOverlapIsExpected(t *testing.T) {
	// A name matching several area keyword sets shows up under each.
	catalog := []acuity.AppointmentType{svc(1, "Back & Leg Wax Combo")}
	assert.Equal(t, []int{1}, ids(Classify(catalog, GenderFemale, AreaMid)))
	assert.Equal(t, []int{1}, ids(Classify(catalog, GenderFemale, AreaLow)))
}

func TestClassifyUnknownArea(t *testing.T) {
	assert.Nil(t, Classify(testCatalog(), GenderFemale, BodyArea("torso")))
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	catalog := testCatalog()
	before := make([]acuity.AppointmentType, len(catalog))
	copy(before, catalog)
	_ = Classify(catalog, GenderMale, AreaLow)
	assert.Equal(t, before, catalog)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidGender(GenderFemale))
	assert.True(t, ValidGender(GenderMale))
	assert.False(t, ValidGender(Gender("other")))
	assert.True(t, ValidArea(AreaMid))
	assert.False(t, ValidArea(BodyArea("hands")))
}
