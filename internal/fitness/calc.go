// Package fitness holds the coach's calculation helpers: BMI, BMR (Mifflin-St
// Jeor), TDEE, calorie targets and macro splits. Every function is pure and
// never panics on bad input; instead it returns a Result whose numeric field
// is nil and whose status explains what went wrong, so a degraded answer can
// still be handed back to the model.
package fitness

import (
	"fmt"
	"strings"
)

// Result is one calculation outcome, shaped to be sent straight back to the
// model as a function response: computed fields plus a "status" field.
type Result map[string]any

const statusCalculated = "Calculated!"

var activityMultipliers = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"high":      1.725,
	"extreme":   1.9,
}

// BMI computes weight / height^2 with height in centimeters, rounded to one
// decimal place.
func BMI(heightCm, weightKg float64) Result {
	if heightCm <= 0 || weightKg <= 0 {
		return Result{"bmi": nil, "status": "Error: height and weight must be positive numbers."}
	}
	heightM := heightCm / 100
	bmi := weightKg / (heightM * heightM)
	return Result{"bmi": fmt.Sprintf("%.1f", bmi), "status": statusCalculated}
}

// BMR computes the Mifflin-St Jeor basal metabolic rate. The gender branch is
// case-insensitive; anything other than male or female uses the neutral -78
// offset.
func BMR(heightCm, weightKg, age float64, gender string) Result {
	if heightCm <= 0 || weightKg <= 0 || age <= 0 {
		return Result{"bmr": nil, "status": "Error: height, weight and age must be positive numbers."}
	}
	bmr := 10*weightKg + 6.25*heightCm - 5*age
	switch strings.ToLower(gender) {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		bmr -= 78
	}
	return Result{"bmr": fmt.Sprintf("%.0f", bmr), "status": statusCalculated}
}

// TDEE scales a basal rate by a fixed activity multiplier. Unknown activity
// levels are an error result; no multiplier is guessed.
func TDEE(bmr float64, activityLevel string) Result {
	multiplier, ok := activityMultipliers[strings.ToLower(activityLevel)]
	if !ok {
		return Result{"tdee": nil, "status": "Error: Invalid activity level."}
	}
	if bmr <= 0 {
		return Result{"tdee": nil, "status": "Error: BMR must be a positive number."}
	}
	return Result{"tdee": fmt.Sprintf("%.0f", bmr*multiplier), "status": statusCalculated}
}

// CalorieTarget adjusts a TDEE for the stated goal: a 500 kcal deficit to
// lose weight, a 300 kcal surplus to gain muscle, unchanged otherwise.
func CalorieTarget(tdee float64, goal string) Result {
	if tdee <= 0 {
		return Result{"calories": nil, "status": "Error: TDEE must be a positive number."}
	}
	calories := tdee
	switch strings.ToLower(goal) {
	case "lose_weight":
		calories -= 500
	case "gain_muscle":
		calories += 300
	}
	return Result{"calories": fmt.Sprintf("%.0f", calories), "status": statusCalculated}
}

// MacroSplit divides a calorie budget into protein/carb/fat grams using
// 4 kcal/g for protein and carbs and 9 kcal/g for fat. The percentage table
// depends on the goal; the default split is 30/40/30.
func MacroSplit(calories float64, goal string) Result {
	if calories <= 0 {
		return Result{
			"proteinGrams": nil,
			"carbsGrams":   nil,
			"fatGrams":     nil,
			"status":       "Error: calories must be a positive number.",
		}
	}
	protein, carbs, fat := 0.3, 0.4, 0.3
	switch strings.ToLower(goal) {
	case "lose_weight":
		protein, carbs, fat = 0.4, 0.3, 0.3
	case "gain_muscle":
		protein, carbs, fat = 0.35, 0.45, 0.2
	}
	return Result{
		"proteinGrams": fmt.Sprintf("%.0f", calories*protein/4),
		"carbsGrams":   fmt.Sprintf("%.0f", calories*carbs/4),
		"fatGrams":     fmt.Sprintf("%.0f", calories*fat/9),
		"status":       statusCalculated,
	}
}
