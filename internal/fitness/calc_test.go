package fitness

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBMI(t *testing.T) {
	res := BMI(180, 80)
	assert.Equal(t, "24.7", res["bmi"])
	assert.Equal(t, "Calculated!", res["status"])
}

func TestBMIInvalidInput(t *testing.T) {
	for _, tc := range []struct{ height, weight float64 }{
		{0, 80},
		{-180, 80},
		{180, 0},
		{180, -5},
	} {
		res := BMI(tc.height, tc.weight)
		assert.Nil(t, res["bmi"], "bmi(%v, %v)", tc.height, tc.weight)
		assert.Contains(t, res["status"], "Error:")
	}
}

func TestBMRGenderBranches(t *testing.T) {
	tests := []struct {
		gender string
		want   string
	}{
		{"male", "1780"},
		{"Male", "1780"},
		{"female", "1614"},
		{"other", "1697"},
		{"", "1697"},
		{"nonbinary", "1697"},
	}
	for _, tc := range tests {
		res := BMR(180, 80, 30, tc.gender)
		assert.Equal(t, tc.want, res["bmr"], "gender %q", tc.gender)
		assert.Equal(t, "Calculated!", res["status"])
	}
}

func TestBMRInvalidInput(t *testing.T) {
	res := BMR(180, 80, 0, "male")
	assert.Nil(t, res["bmr"])
	assert.Contains(t, res["status"], "Error:")
}

func TestTDEE(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"sedentary", "2136"}, // 1780 * 1.2
		{"moderate", "2759"},  // 1780 * 1.55
		{"Extreme", "3382"},   // 1780 * 1.9
	}
	for _, tc := range tests {
		res := TDEE(1780, tc.level)
		assert.Equal(t, tc.want, res["tdee"], "level %q", tc.level)
	}
}

func TestTDEEUnknownActivityLevel(t *testing.T) {
	res := TDEE(1780, "unknown_level")
	assert.Nil(t, res["tdee"])
	assert.NotEmpty(t, res["status"])
	assert.Contains(t, res["status"], "Error:")
}

func TestCalorieTarget(t *testing.T) {
	tests := []struct {
		goal string
		want string
	}{
		{"lose_weight", "2259"},
		{"gain_muscle", "3059"},
		{"maintain", "2759"},
		{"anything_else", "2759"},
	}
	for _, tc := range tests {
		res := CalorieTarget(2759, tc.goal)
		assert.Equal(t, tc.want, res["calories"], "goal %q", tc.goal)
	}
}

func TestMacroSplit(t *testing.T) {
	tests := []struct {
		goal                string
		protein, carbs, fat string
	}{
		// 2000 kcal: default 30/40/30, lose 40/30/30, gain 35/45/20
		{"maintain", "150", "200", "67"},
		{"lose_weight", "200", "150", "67"},
		{"gain_muscle", "175", "225", "44"},
	}
	for _, tc := range tests {
		res := MacroSplit(2000, tc.goal)
		assert.Equal(t, tc.protein, res["proteinGrams"], "goal %q", tc.goal)
		assert.Equal(t, tc.carbs, res["carbsGrams"], "goal %q", tc.goal)
		assert.Equal(t, tc.fat, res["fatGrams"], "goal %q", tc.goal)
		assert.Equal(t, "Calculated!", res["status"])
	}
}

func TestMacroSplitInvalidCalories(t *testing.T) {
	res := MacroSplit(0, "maintain")
	assert.Nil(t, res["proteinGrams"])
	assert.Contains(t, res["status"], "Error:")
}

func ExampleBMI() {
	res := BMI(180, 80)
	fmt.Println(res["bmi"], res["status"])
	// Output: 24.7 Calculated!
}
